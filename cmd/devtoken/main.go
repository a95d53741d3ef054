package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/kinmatch/internal/config"
	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
)

func main() {
	userID := flag.Int64("user", 0, "user id to put into the token subject")
	role := flag.String("role", "user", "token role")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *userID <= 0 {
		log.Fatal("use -user to pass a positive user id")
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Env == "prod" {
		log.Fatal("refusing to mint tokens with production config")
	}

	tokens := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, *ttl)
	token, expiresAt, err := tokens.GenerateAccessToken(*userID, uuid.NewString(), *role)
	if err != nil {
		log.Fatalf("generate access token: %v", err)
	}

	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.UTC().Format(time.RFC3339))
}
