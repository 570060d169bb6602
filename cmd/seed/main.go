// seed inserts development sample accounts for local testing.
// Idempotent: skips accounts whose ID already exists.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	accountdomain "report-api/internal/account/domain"
	accountrepo "report-api/internal/account/repository"
	"report-api/internal/config"
	"report-api/internal/db"
	"report-api/internal/security"
	"report-api/internal/store"
)

const (
	adminAccountID  = "dev-admin-001"
	memberAccountID = "dev-member-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var docs store.Store
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()
		docs = store.NewPostgresStore(conn)
	} else {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		docs = fs
	}

	ctx := context.Background()
	accounts := accountrepo.NewDocStoreRepository(docs)

	seed := []*accountdomain.Account{
		{
			ID:          adminAccountID,
			DisplayName: "admin",
			Role:        accountdomain.RoleAdmin,
			Phone:       "15550000001",
			Email:       "admin@example.com",
		},
		{
			ID:          memberAccountID,
			DisplayName: "member",
			Role:        accountdomain.RoleMember,
			Phone:       "15550000002",
			Email:       "member@example.com",
		},
	}
	for _, a := range seed {
		token, err := security.GenerateAccessToken()
		if err != nil {
			log.Fatalf("seed: token: %v", err)
		}
		a.AccessToken = token
		a.CreatedAt = time.Now().UTC()
		if err := accounts.Create(ctx, a); err != nil {
			if errors.Is(err, accountrepo.ErrAccountExists) {
				log.Printf("seed: account %s already exists, skipping", a.ID)
				continue
			}
			log.Fatalf("seed: create %s: %v", a.ID, err)
		}
		log.Printf("seed: created account %s (%s)", a.DisplayName, a.ID)
	}
}
