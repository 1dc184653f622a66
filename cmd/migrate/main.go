package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage"
	evalsmigrations "github.com/rosklyar/prompts-volume-sub000/migrations/evals"
	promptsmigrations "github.com/rosklyar/prompts-volume-sub000/migrations/prompts"
	usersmigrations "github.com/rosklyar/prompts-volume-sub000/migrations/users"
)

var (
	command string
	store   string
)

func init() {
	flag.StringVar(&command, "command", "up", "Migration command: init, up, down, status, reset")
	flag.StringVar(&store, "store", "all", "Logical store to migrate: prompts, users, evals, or all")
}

func main() {
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	stores, err := resolveStores(store)
	if err != nil {
		slog.Error("invalid --store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, s := range stores {
		if err := migrateStore(ctx, s); err != nil {
			slog.Error("migration command failed",
				slog.String("store", s),
				slog.String("command", command),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	slog.Info("migration command completed successfully", slog.String("command", command))
}

func resolveStores(selector string) ([]string, error) {
	switch selector {
	case "prompts", "users", "evals":
		return []string{selector}, nil
	case "all":
		return []string{"prompts", "users", "evals"}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (available: prompts, users, evals, all)", selector)
	}
}

// databaseURLFor resolves the DSN for a logical store from the
// store-specific PROMPTVOL_*_DB_URL environment variable and returns it
// together with that store's embedded migrations.
func databaseURLFor(storeName string) (string, fs.FS, error) {
	envVar := map[string]string{
		"prompts": "PROMPTVOL_PROMPTS_DB_URL",
		"users":   "PROMPTVOL_USERS_DB_URL",
		"evals":   "PROMPTVOL_EVALS_DB_URL",
	}[storeName]

	migrationsFS := map[string]fs.FS{
		"prompts": promptsmigrations.FS,
		"users":   usersmigrations.FS,
		"evals":   evalsmigrations.FS,
	}[storeName]

	dbURL := os.Getenv(envVar)
	if dbURL == "" {
		return "", nil, fmt.Errorf("%s is required", envVar)
	}
	return dbURL, migrationsFS, nil
}

func migrateStore(ctx context.Context, storeName string) error {
	dbURL, migrationsFS, err := databaseURLFor(storeName)
	if err != nil {
		return err
	}

	cfg := &storage.Config{
		DSN:             dbURL,
		MaxOpenConns:    5, // lower for migrations
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		Debug:           os.Getenv("DEBUG") == "true",
	}

	db, err := storage.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", storeName, err)
	}
	defer storage.Close(db)

	migrator, err := storage.NewMigrator(db, migrationsFS)
	if err != nil {
		return fmt.Errorf("failed to create migrator for %s: %w", storeName, err)
	}

	slog.Info("running migration command", slog.String("store", storeName), slog.String("command", command))
	return executeCommand(ctx, migrator, command)
}

func executeCommand(ctx context.Context, migrator *storage.Migrator, cmd string) error {
	switch cmd {
	case "init":
		return migrator.Init(ctx)
	case "up":
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("init failed: %w", err)
		}
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	case "reset":
		return migrator.Reset(ctx)
	default:
		return fmt.Errorf("unknown command: %s (available: init, up, down, status, reset)", cmd)
	}
}
