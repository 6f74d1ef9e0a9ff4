// Command token generates an API token and the bcrypt hash to put in
// AUTH_TOKEN_HASH.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/YannKr/certgen/internal/auth"
)

func main() {
	token := flag.String("token", "", "hash this token instead of generating one")
	flag.Parse()

	tok := *token
	if tok == "" {
		var err error
		if tok, err = auth.GenerateToken(24); err != nil {
			log.Fatalf("generate token: %v", err)
		}
	}
	hash, err := auth.HashToken(tok)
	if err != nil {
		log.Fatalf("hash token: %v", err)
	}
	fmt.Printf("token:           %s\n", tok)
	fmt.Printf("AUTH_TOKEN_HASH=%s\n", hash)
}
