// Package store defines the credential and message log contracts used by
// the chat routes, with flat-file implementations.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidMessage is returned by Append when a message cannot be
	// stored as a single record.
	ErrInvalidMessage = errors.New("invalid message")
)

// Credentials looks up a user's password.
type Credentials interface {
	// Find returns the password stored for username, or ErrNotFound.
	Find(ctx context.Context, username string) (string, error)
}

// Message is one chat line.
type Message struct {
	Username string
	Text     string
}

// MessageLog is an append-only list of messages, replayed in insertion order.
type MessageLog interface {
	Append(ctx context.Context, msg Message) error
	ListAll(ctx context.Context) ([]Message, error)
}
