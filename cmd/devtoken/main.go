// Command devtoken prints an access token signed with JWT_SECRET for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"fulfillment/config"
	"fulfillment/internal/auth"
)

func main() {
	email := flag.String("email", "customer@example.com", "token subject")
	role := flag.String("role", "customer", "token role (customer or admin)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load("devtoken")

	token, err := auth.NewVerifier(cfg.Auth.JWTSecret).Issue(*email, *role, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
