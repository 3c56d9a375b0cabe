package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/devwelkin/hermes-chat/internal/request"
)

var (
	port   = flag.Int("port", 42069, "port number")
	window = flag.Duration("window", 100*time.Millisecond, "quiet period that ends a read")
)

// dump prints a request the way the chat server would see it.
func dump(conn net.Conn) {
	defer conn.Close()

	raw, err := request.ReadAvailable(conn, *window)
	if err != nil {
		log.Printf("read error: %v", err)
	}
	fmt.Printf("raw (%d bytes): %q\n", len(raw), raw)

	req, err := request.Parse(raw)
	if err != nil {
		log.Printf("parse error: %v", err)
		return
	}
	rl := req.RequestLine
	fmt.Printf("Request line:\n- Method: %s\n- Target: %s\n- Version: %s\n", rl.Method, rl.RequestTarget, rl.HTTPVersion)
	fmt.Printf("Host: %s\n", req.Host)
	fmt.Println("Headers:")
	for _, line := range req.Headers.Lines() {
		fmt.Printf("- %s\n", line)
	}
	if cookie, ok := req.Cookie(); ok {
		fmt.Printf("Cookie: %s\n", cookie)
	}
	fmt.Printf("Body:\n%s\n", req.Body)
}

func main() {
	flag.Parse()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatal(err)
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("connection has accepted\n")
		dump(conn)
	}
}
