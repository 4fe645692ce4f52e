// Package main provides a CLI for seeding the local development database
// with demo catalog data, optionally minting a development access token.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civikit/catalog/internal/auth/token"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	"github.com/civikit/catalog/internal/platform/requestctx"
	"github.com/civikit/catalog/internal/seed"
)

func main() {
	seedCfg := seed.DefaultConfig()
	var dbPath string
	var mintToken bool
	var issuer string
	var audience string
	var ttl time.Duration

	flag.StringVar(&dbPath, "db", envOr("CIVIKIT_CATALOG_DB_PATH", "catalog.db"), "path to the catalog database")
	flag.StringVar(&seedCfg.OrganizationCode, "org", seedCfg.OrganizationCode, "organization code")
	flag.StringVar(&seedCfg.OrganizationName, "org-name", seedCfg.OrganizationName, "organization name")
	flag.BoolVar(&seedCfg.Verbose, "v", false, "verbose output")
	flag.BoolVar(&mintToken, "token", false, "mint a development access token for the seeded organization")
	flag.StringVar(&issuer, "issuer", "https://auth.localhost", "issuer for the development token")
	flag.StringVar(&audience, "audience", "catalog", "audience for the development token")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "lifetime of the development token")
	flag.Parse()

	seedCfg.Log = log.Printf
	log.SetPrefix("[SEED] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, dbPath, seedCfg, mintToken, issuer, audience, ttl); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run(ctx context.Context, dbPath string, cfg seed.Config, mintToken bool, issuer, audience string, ttl time.Duration) error {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	result, err := seed.Run(ctx, store, cfg)
	if err != nil {
		return err
	}
	log.Printf("seeded %d life situations, %d services, %d processes under %s",
		len(result.LifeSituations), len(result.Services), len(result.Processes),
		result.Organization.Code)

	if !mintToken {
		return nil
	}
	return printDevToken(result.Organization.ID, result.Organization.Code, issuer, audience, ttl)
}

// printDevToken generates a throwaway keypair and prints a signed token plus
// the matching verification key, ready to export for a local server.
func printDevToken(orgID int64, orgCode, issuer, audience string, ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	cfg := token.Config{Issuer: issuer, Audience: audience, Key: pub}
	signed, err := token.Mint(requestctx.Caller{
		UserID:           "dev",
		OrganizationID:   orgID,
		OrganizationCode: orgCode,
	}, cfg, priv, ttl)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	fmt.Printf("export CIVIKIT_CATALOG_TOKEN_ISSUER=%s\n", issuer)
	fmt.Printf("export CIVIKIT_CATALOG_TOKEN_AUDIENCE=%s\n", audience)
	fmt.Printf("export CIVIKIT_CATALOG_TOKEN_PUBLIC_KEY=%s\n", base64.StdEncoding.EncodeToString(pub))
	fmt.Printf("export CATALOG_DEV_TOKEN=%s\n", signed)
	return nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
