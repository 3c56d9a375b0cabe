package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CredentialFile reads "username,password" lines. The file is read in
// full on every lookup so edits take effect without a restart.
type CredentialFile struct {
	path string
}

func NewCredentialFile(path string) *CredentialFile {
	return &CredentialFile{path: path}
}

// Find returns the password on the first line whose username matches.
func (c *CredentialFile) Find(_ context.Context, username string) (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}

	for _, line := range splitRecords(data) {
		user, password, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		if user == username {
			return password, nil
		}
	}
	return "", ErrNotFound
}

// MessageFile stores "username,text" lines. Appends are serialized so at
// most one writer touches the file at a time.
type MessageFile struct {
	path string
	mu   sync.Mutex
}

func NewMessageFile(path string) *MessageFile {
	return &MessageFile{path: path}
}

// Append writes msg as one line. If the file cannot be opened, its
// directory is created and the open retried once. Messages that would not
// read back as the same single record are rejected with ErrInvalidMessage.
func (m *MessageFile) Append(_ context.Context, msg Message) error {
	if err := checkRecord(msg); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.open()
	if err != nil {
		if mkErr := os.MkdirAll(filepath.Dir(m.path), 0o755); mkErr != nil {
			return fmt.Errorf("create log directory: %w", mkErr)
		}
		f, err = m.open()
		if err != nil {
			return fmt.Errorf("open message log: %w", err)
		}
	}

	line := msg.Username + "," + msg.Text + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append message: %w", err)
	}
	return f.Close()
}

// checkRecord rejects line breaks anywhere and commas in the username,
// the only field ListAll cannot recover them from.
func checkRecord(msg Message) error {
	if strings.ContainsAny(msg.Username, ",\r\n") {
		return fmt.Errorf("%w: username %q", ErrInvalidMessage, msg.Username)
	}
	if strings.ContainsAny(msg.Text, "\r\n") {
		return fmt.Errorf("%w: line break in text", ErrInvalidMessage)
	}
	return nil
}

func (m *MessageFile) open() (*os.File, error) {
	return os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// ListAll returns every stored message in file order. A log that does not
// exist yet is empty.
func (m *MessageFile) ListAll(_ context.Context) ([]Message, error) {
	m.mu.Lock()
	data, err := os.ReadFile(m.path)
	m.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read message log: %w", err)
	}

	records := splitRecords(data)
	msgs := make([]Message, 0, len(records))
	for _, line := range records {
		user, text, _ := strings.Cut(line, ",")
		msgs = append(msgs, Message{Username: user, Text: text})
	}
	return msgs, nil
}

// splitRecords returns the non-empty lines of data, tolerating CRLF.
func splitRecords(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
