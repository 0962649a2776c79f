package auth

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const testClientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestSaveToken_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	if err := saveToken(path, want, io.Discard); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Fatalf("token mismatch: %+v", got)
	}
}

func TestGmailClient_MissingToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	if err := os.WriteFile(creds, []byte(testClientSecret), 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}

	if _, err := GmailClient(context.Background(), creds, filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing token file")
	}
}

func TestGmailClient_WithToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	if err := os.WriteFile(creds, []byte(testClientSecret), 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}
	tokenPath := filepath.Join(dir, "token.json")
	if err := saveToken(tokenPath, &oauth2.Token{AccessToken: "a"}, io.Discard); err != nil {
		t.Fatalf("saveToken: %v", err)
	}

	client, err := GmailClient(context.Background(), creds, tokenPath)
	if err != nil {
		t.Fatalf("GmailClient: %v", err)
	}
	if client == nil {
		t.Fatal("expected http client")
	}
}
