package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCredentialFileFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login", "credentials.txt")
	writeFile(t, path, "alice,secret123\nbob,hunter2\r\n\nalice,other\n")
	creds := NewCredentialFile(path)
	ctx := context.Background()

	tests := []struct {
		user    string
		want    string
		wantErr error
	}{
		{"alice", "secret123", nil},
		{"bob", "hunter2", nil},
		{"carol", "", ErrNotFound},
		{"", "", ErrNotFound},
	}
	for _, tt := range tests {
		got, err := creds.Find(ctx, tt.user)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("Find(%q) = %q, %v; want %q, %v", tt.user, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestCredentialFileReadsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.txt")
	writeFile(t, path, "alice,one\n")
	creds := NewCredentialFile(path)

	if got, _ := creds.Find(context.Background(), "alice"); got != "one" {
		t.Fatalf("got %q", got)
	}
	writeFile(t, path, "alice,two\n")
	if got, _ := creds.Find(context.Background(), "alice"); got != "two" {
		t.Errorf("edit not picked up, got %q", got)
	}
}

func TestCredentialFileMissing(t *testing.T) {
	creds := NewCredentialFile(filepath.Join(t.TempDir(), "nope.txt"))
	_, err := creds.Find(context.Background(), "alice")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("missing file should be an I/O error, got %v", err)
	}
}

func TestMessageFileAppendThenList(t *testing.T) {
	// the chat directory does not exist yet
	path := filepath.Join(t.TempDir(), "chat", "log.txt")
	log := NewMessageFile(path)
	ctx := context.Background()

	msgs, err := log.ListAll(ctx)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("empty log = %v, %v", msgs, err)
	}

	want := []Message{
		{"bob", "hello"},
		{"alice", "hi, bob"},
		{"bob", ""},
	}
	for _, m := range want {
		if err := log.Append(ctx, m); err != nil {
			t.Fatalf("Append(%v): %v", m, err)
		}
	}

	got, err := log.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListAll = %v, want %v", got, want)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "bob,hello\nalice,hi, bob\nbob,\n" {
		t.Errorf("file = %q", data)
	}
}

func TestMessageFileConcurrentAppends(t *testing.T) {
	log := NewMessageFile(filepath.Join(t.TempDir(), "log.txt"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append(ctx, Message{"u", "m"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := log.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 50 {
		t.Errorf("got %d messages, want 50", len(got))
	}
}

func TestMessageFileRejectsBrokenRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	log := NewMessageFile(path)
	ctx := context.Background()

	if err := log.Append(ctx, Message{"bob", "first"}); err != nil {
		t.Fatal(err)
	}
	for _, m := range []Message{
		{"alice", "hi\nmallory,I am mallory"},
		{"alice", "carriage\rreturn"},
		{"a,b", "hello"},
		{"eve\n", "hello"},
	} {
		if err := log.Append(ctx, m); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("Append(%v) = %v, want ErrInvalidMessage", m, err)
		}
	}

	got, err := log.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []Message{{"bob", "first"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListAll = %v, want %v", got, want)
	}
}
