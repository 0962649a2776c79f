package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var ErrBadSignature = errors.New("invalid or expired signature")

// Local stores objects on disk. Download URLs point at the API's /files route
// and carry an expiry and an HMAC over key and expiry.
type Local struct {
	root    string
	baseURL string
	key     []byte
	now     func() time.Time
}

func NewLocal(root, baseURL, signingKey string) (*Local, error) {
	if signingKey == "" {
		return nil, errors.New("local storage needs a signing key")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     []byte(signingKey),
		now:     time.Now,
	}, nil
}

func (l *Local) path(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Put(_ context.Context, key, _ string, r io.Reader) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *Local) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	p := filepath.Join(l.root, filepath.FromSlash(clean))
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	expires := l.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", l.sign(clean, expires))
	return fmt.Sprintf("%s/files/%s?%s", l.baseURL, clean, q.Encode()), nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open verifies a signed request and opens the object for reading.
func (l *Local) Open(key, expires, sig string) (*os.File, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return nil, ErrBadSignature
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || l.now().Unix() > exp {
		return nil, ErrBadSignature
	}
	if !hmac.Equal([]byte(sig), []byte(l.sign(clean, exp))) {
		return nil, ErrBadSignature
	}
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (l *Local) sign(key string, expires int64) string {
	h := hmac.New(sha256.New, l.key)
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
