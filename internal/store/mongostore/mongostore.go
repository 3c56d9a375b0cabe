// Package mongostore keeps credentials and chat messages in MongoDB.
//
// Users live in the "users" collection as {username, password}; messages
// are appended to "messages" as {username, text} and replayed by _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/devwelkin/hermes-chat/internal/store"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

type userDoc struct {
	Username string `bson:"username"`
	Password string `bson:"password"`
}

type messageDoc struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Username string        `bson:"username"`
	Text     string        `bson:"text"`
}

// Store implements store.Credentials and store.MessageLog.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	messages *mongo.Collection
}

var (
	_ store.Credentials = (*Store)(nil)
	_ store.MessageLog  = (*Store)(nil)
)

// Open connects to uri and checks the server is reachable.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, database), nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		messages: db.Collection(messagesCollection),
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Find(ctx context.Context, username string) (string, error) {
	var user userDoc
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	return user.Password, nil
}

func (s *Store) Append(ctx context.Context, msg store.Message) error {
	_, err := s.messages.InsertOne(ctx, messageDoc{
		Username: msg.Username,
		Text:     msg.Text,
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]store.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	msgs := make([]store.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, store.Message{Username: d.Username, Text: d.Text})
	}
	return msgs, nil
}

// AddUser inserts a credential document. Used to seed a fresh database.
func (s *Store) AddUser(ctx context.Context, username, password string) error {
	_, err := s.users.InsertOne(ctx, userDoc{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
