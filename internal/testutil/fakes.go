package testutil

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/InternConnect/internal/mailer"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"github.com/tmc/langchaingo/llms"
)

// FakeLLM answers every generation call with Response, or fails with Err.
type FakeLLM struct {
	mu       sync.Mutex
	Response string
	Err      error
	Prompts  []string
	Parts    [][]llms.ContentPart
}

func (f *FakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range messages {
		f.Parts = append(f.Parts, m.Parts)
		for _, p := range m.Parts {
			if text, ok := p.(llms.TextContent); ok {
				f.Prompts = append(f.Prompts, text.Text)
			}
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.Response}}}, nil
}

func (f *FakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// Calls reports how many generation requests were made.
func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Parts)
}

// FakeEmbedder maps text onto one dimension per keyword, counting occurrences.
// Texts sharing keywords therefore have a positive cosine similarity.
type FakeEmbedder struct {
	Keywords []string
	Err      error
}

var DefaultKeywords = []string{"go", "python", "react", "sql", "design", "marketing", "data", "cloud"}

func (f *FakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	keywords := f.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
		})
		vec := make([]float32, len(keywords))
		for _, w := range words {
			for i, k := range keywords {
				if w == k {
					vec[i]++
				}
			}
		}
		out = append(out, vec)
	}
	return out, nil
}

// RecordingMailer keeps every message it is asked to send.
type RecordingMailer struct {
	mu   sync.Mutex
	Err  error
	sent []mailer.Message
}

func (m *RecordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *RecordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

// MemoryStore is an in-memory storage.Store with predictable URLs.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = data
	s.Types[key] = contentType
	return nil
}

func (s *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[key]; !ok {
		return "", storage.ErrNotFound
	}
	return fmt.Sprintf("https://files.test/%s?ttl=%s", url.PathEscape(key), ttl), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.Objects, key)
	delete(s.Types, key)
	return nil
}

func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}
