package settings

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, "theme")
	if err != nil || v != "dark" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := s.Set(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(ctx, "theme"); v != "light" {
		t.Fatalf("overwrite failed, got %q", v)
	}
	if err := s.Delete(ctx, "theme"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func exerciseCredential(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	cred, err := LoadCredential(ctx, s)
	if err != nil || cred != "" {
		t.Fatalf("expected no credential, got %q, %v", cred, err)
	}
	if err := SaveCredential(ctx, s, "  sk-or-v1-abc  "); err != nil {
		t.Fatal(err)
	}
	if cred, _ := LoadCredential(ctx, s); cred != "sk-or-v1-abc" {
		t.Fatalf("expected trimmed credential, got %q", cred)
	}
	if err := SaveCredential(ctx, s, "   "); err != nil {
		t.Fatal(err)
	}
	if cred, _ := LoadCredential(ctx, s); cred != "" {
		t.Fatalf("blank save must clear the credential, got %q", cred)
	}
	// Clearing twice is not an error.
	if err := SaveCredential(ctx, s, ""); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCredential(t *testing.T) {
	exerciseCredential(t, NewMemoryStore())
}

func TestLoadCredential_BlankValueIsNotConfigured(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Set(context.Background(), CredentialKey, "  ")
	cred, err := LoadCredential(context.Background(), s)
	if err != nil || cred != "" {
		t.Fatalf("expected blank credential, got %q, %v", cred, err)
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error        { return f.err }

func TestCredentialHelpersWrapStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	s := failingStore{err: boom}
	if _, err := LoadCredential(context.Background(), s); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := SaveCredential(context.Background(), s, "sk"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := SaveCredential(context.Background(), s, ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisConfig{URL: url, Namespace: "LegalBotPrefsTest-" + uuid.NewString()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	exerciseStore(t, s)
	exerciseCredential(t, s)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), RedisConfig{URL: "not-a-url"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpen_WithoutURLIsMemory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), RedisConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", s)
	}
}
