package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aims-edu/portal-api/internal/repository"
	"github.com/aims-edu/portal-api/internal/service"
	"github.com/aims-edu/portal-api/pkg/config"
	"github.com/aims-edu/portal-api/pkg/database"
)

// provision-admin seeds an administrator account. Admin accounts never
// flow through the public request/approval ledger, so this is the only
// way one comes into existence.
func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	fullName := flag.String("full-name", "Administrator", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: provision-admin -email admin@example.com -password secret [-full-name name]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	accounts := repository.NewAccountRepository(db)
	normalized := service.NormalizeEmail(*email)
	if err := accounts.ProvisionAdmin(ctx, normalized, string(hash), *fullName); err != nil {
		log.Fatalf("failed to provision admin: %v", err)
	}

	fmt.Printf("admin account ready: %s\n", normalized)
}
