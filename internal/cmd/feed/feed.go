// Package feed parses feed service flags and launches the service.
package feed

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/louisbranch/openfeed/internal/auth"
	"github.com/louisbranch/openfeed/internal/feed/service"
	"github.com/louisbranch/openfeed/internal/feed/storage/sqlite"
	entrypoint "github.com/louisbranch/openfeed/internal/platform/cmd"
	"github.com/louisbranch/openfeed/internal/server"
)

// Config holds feed command configuration.
type Config struct {
	Addr      string `env:"OPENFEED_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath    string `env:"OPENFEED_DB_PATH" envDefault:"openfeed.db"`
	JWTSecret string `env:"OPENFEED_JWT_SECRET"`
	JWTIssuer string `env:"OPENFEED_JWT_ISSUER" envDefault:"openfeed"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The feed HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the feed SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the feed HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFeed, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open feed store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close feed store: %v", err)
			}
		}()

		secret := cfg.JWTSecret
		if secret == "" {
			// Sessions will not survive a restart without a configured secret.
			secret = auth.GenerateSecret()
			log.Println("OPENFEED_JWT_SECRET is not set, using an ephemeral secret")
		}
		issuer := auth.NewIssuer(secret, cfg.JWTIssuer)

		srv := server.New(cfg.Addr, service.NewService(store), issuer)
		return srv.Start(ctx)
	})
}
