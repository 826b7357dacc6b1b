package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"playdrive/internal/config"
	"playdrive/internal/domain"
	"playdrive/internal/domain/models"
	"playdrive/internal/domain/services"
	"playdrive/internal/events"
	"playdrive/internal/repository/postgres"
	"playdrive/internal/service/drive"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// demoOwner gets a sample drive so the frontend has something to render
// against a fresh database.
const demoOwner = "demo@playdrive.local"

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed nodes")
	clearData := flag.Bool("clear-data", false, "Clear all nodes (keep schema)")
	owner := flag.String("owner", demoOwner, "Owner ID to seed the demo drive for")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("🧹 Clearing existing nodes...")
		if err := clearNodes(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	nodeStore := postgres.NewNodeStore(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})
	driveService := drive.NewDriveService(nodeStore, events.NewBus(logger), logger)

	log.Printf("🌱 Seeding demo drive for %s...", *owner)
	if err := seedDemoDrive(ctx, driveService, *owner); err != nil {
		log.Fatalf("Failed to seed demo drive: %v", err)
	}
	log.Println("✅ Seeding complete")
}

// seedDemoDrive builds a small drive: two top-level folders, one nested
// folder, and a few leaves. Re-running is safe; existing names are skipped.
func seedDemoDrive(ctx context.Context, svc services.DriveService, ownerID string) error {
	if err := svc.EnsureRoot(ctx, ownerID); err != nil {
		return fmt.Errorf("ensure root: %w", err)
	}

	movies, err := seedFolder(ctx, svc, ownerID, "Movies", models.RootFolderAlias)
	if err != nil {
		return err
	}
	clips, err := seedFolder(ctx, svc, ownerID, "Clips", models.RootFolderAlias)
	if err != nil {
		return err
	}
	classics, err := seedFolder(ctx, svc, ownerID, "Classics", movies)
	if err != nil {
		return err
	}

	leaves := []struct {
		name   string
		folder string
		playID string
	}{
		{"Big Buck Bunny", classics, "demo-bbb"},
		{"Sintel", classics, "demo-sintel"},
		{"First steps", clips, "demo-first-steps"},
	}
	for _, leaf := range leaves {
		node, err := models.NewLeaf(ownerID, leaf.name, leaf.folder, models.LeafMetadata{
			PlayID:   leaf.playID,
			MimeType: "video/mp4",
		})
		if err != nil {
			return fmt.Errorf("build leaf %q: %w", leaf.name, err)
		}
		if _, _, err := svc.CreateOne(ctx, node); err != nil && !isNameConflict(err) {
			return fmt.Errorf("create leaf %q: %w", leaf.name, err)
		}
	}
	return nil
}

func seedFolder(ctx context.Context, svc services.DriveService, ownerID, name, parent string) (string, error) {
	folder, err := models.NewFolder(ownerID, name, parent)
	if err != nil {
		return "", fmt.Errorf("build folder %q: %w", name, err)
	}
	created, _, err := svc.CreateOne(ctx, folder)
	if err != nil {
		if isNameConflict(err) {
			return findFolderID(ctx, svc, ownerID, name, parent)
		}
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return created.ID, nil
}

// findFolderID resolves a folder that already existed on a previous run.
func findFolderID(ctx context.Context, svc services.DriveService, ownerID, name, parent string) (string, error) {
	listing, err := svc.ListFolder(ctx, ownerID, parent)
	if err != nil {
		return "", err
	}
	for _, child := range listing.Children {
		if child.Name == name && child.Kind == models.KindFolder {
			return child.ID, nil
		}
	}
	return "", fmt.Errorf("folder %q not found in %q", name, parent)
}

func isNameConflict(err error) bool {
	var conflict *domain.NameConflictError
	return errors.As(err, &conflict)
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", tables.Nodes))
	return err
}

func clearNodes(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", tables.Nodes))
	return err
}
