package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// generateRandomToken builds an alphanumeric secret for the admin API.
func generateRandomToken(length int) (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := 0; i < length; i++ {
		b[i] = chars[int(b[i])%len(chars)]
	}
	return string(b), nil
}

// printNewAdminToken generates a token and its bcrypt hash. The token goes
// in the request header, the hash goes in ADMIN_TOKEN_HASH.
func printNewAdminToken() error {
	token, err := generateRandomToken(32)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	log.Println("🔑 New admin token generated. Store the token somewhere safe; only the hash is configured.")
	fmt.Printf("Token:            %s\n", token)
	fmt.Printf("ADMIN_TOKEN_HASH: %s\n", string(hash))
	return nil
}
