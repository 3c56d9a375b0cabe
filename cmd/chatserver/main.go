package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devwelkin/hermes-chat/internal/chat"
	"github.com/devwelkin/hermes-chat/internal/config"
	"github.com/devwelkin/hermes-chat/internal/pages"
	"github.com/devwelkin/hermes-chat/internal/server"
	"github.com/devwelkin/hermes-chat/internal/session"
	"github.com/devwelkin/hermes-chat/internal/store"
	"github.com/devwelkin/hermes-chat/internal/store/mongostore"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: chatserver <port number>")
	os.Exit(1)
}

// openStores picks MongoDB when a URI is configured, flat files otherwise.
func openStores(ctx context.Context, cfg config.Config) (store.Credentials, store.MessageLog, func(), error) {
	if cfg.MongoURI == "" {
		creds := store.NewCredentialFile(filepath.Join(cfg.Root, cfg.CredentialsPath))
		msgs := store.NewMessageFile(filepath.Join(cfg.Root, cfg.LogPath))
		return creds, msgs, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ms, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ms.Close(ctx); err != nil {
			log.Printf("error closing mongo: %v", err)
		}
	}
	return ms, ms, closeFn, nil
}

func main() {
	if len(os.Args) != 2 {
		usage()
	}
	port, err := config.ParsePort(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}

	cfg := config.NewFromEnv()
	cfg.Port = port

	creds, msgs, closeStores, err := openStores(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Error opening stores: %v", err)
	}
	defer closeStores()

	sessions, err := session.NewManager(session.Mode(cfg.SessionMode), []byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Error creating session manager: %v", err)
	}

	handler := chat.NewHandler(creds, msgs, pages.New(os.DirFS(cfg.Root)), sessions)

	srv, err := server.Serve(cfg, handler.Serve)
	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
	log.Printf("Now connected to port %d (protocol %s, sessions %s)", port, cfg.Protocol, cfg.SessionMode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := srv.Close(); err != nil {
		log.Printf("error closing listener: %v", err)
	}
	log.Println("Server gracefully stopped")
}
