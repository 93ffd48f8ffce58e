package main

import (
	"fmt"
	"os"

	"github.com/inspire-hq/attendance/internal/domain"
)

// genkey prints a fresh tenant API key together with the SHA-256 hash
// to insert into api_keys.key_hash.
//
// Usage:
//
//	go run ./cmd/genkey        # live key
//	go run ./cmd/genkey test   # test key
func main() {
	env := domain.EnvLive
	if len(os.Args) > 1 && os.Args[1] == "test" {
		env = domain.EnvTest
	}

	key, hash, prefix, err := domain.GenerateAPIKey(env)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("KEY=%s\nHASH=%s\nPREFIX=%s\n", key, hash, prefix)
}
