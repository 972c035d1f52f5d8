package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/dood/internal/adapters/auth/jwt"
	"github.com/vncsmyrnk/dood/internal/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New(os.Getenv("APP_ENV"))

	var secret, issuer, subject string
	var ttl time.Duration

	flag.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	flag.StringVar(&issuer, "issuer", os.Getenv("JWT_ISSUER"), "token issuer, must match the gateway's JWT_ISSUER")
	flag.StringVar(&subject, "sub", "", "token subject")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if secret == "" {
		log.Fatal().Msg("a signing secret is required (-secret or JWT_SECRET)")
	}

	token, err := jwt.NewIssuer(secret, issuer, ttl).Issue(subject)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue token")
	}

	fmt.Println(token)
}
