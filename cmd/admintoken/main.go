// Command admintoken prints a signed admin JWT for the chat API's admin mode.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/suPer8Hu/dialog-bot/internal/auth"
	"github.com/suPer8Hu/dialog-bot/internal/config"
)

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default ADMIN_TOKEN_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateAdminToken(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if *ttl == 0 {
		*ttl = cfg.AdminTokenTTL
	}

	tok, err := auth.SignAdmin(cfg.AdminJWTSecret, *subject, *ttl)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Println(tok)
}
