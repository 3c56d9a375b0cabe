package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/devwelkin/hermes-chat/internal/store"
)

// openTestStore connects to CHAT_TEST_MONGO_URI, using a throwaway database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("CHAT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CHAT_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := fmt.Sprintf("chat_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, uri, db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.client.Database(db).Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestFind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AddUser(ctx, "alice", "secret123"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Find(ctx, "alice")
	if err != nil || got != "secret123" {
		t.Errorf("Find(alice) = %q, %v", got, err)
	}
	if _, err := s.Find(ctx, "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Find(bob) = %v, want ErrNotFound", err)
	}
}

func TestAppendThenList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := []store.Message{
		{Username: "bob", Text: "hello"},
		{Username: "alice", Text: "hi"},
		{Username: "bob", Text: "again"},
	}
	for _, m := range want {
		if err := s.Append(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListAll = %v, want %v", got, want)
	}
}
