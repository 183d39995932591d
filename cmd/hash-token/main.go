// hash-token prints the bcrypt hash to put in ADMIN_TOKEN_HASH.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	token := ""
	if len(os.Args) > 1 {
		token = os.Args[1]
	} else if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Failed to read token from stdin: %v", err)
		}
		token = strings.TrimSpace(line)
	}

	generated := false
	if token == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		token = hex.EncodeToString(buf)
		generated = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash token: %v", err)
	}

	if generated {
		fmt.Printf("Token: %s\n", token)
	}
	fmt.Printf("ADMIN_TOKEN_HASH='%s'\n", hash)
}
