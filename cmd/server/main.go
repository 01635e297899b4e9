/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Circle Clicker economy server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env file, environment, flags)
  2. Connect to the database and create the schema
  3. Build the game from the sample catalog or CATALOG_PATH
  4. Apply tunables stored by the admin endpoint
  5. Create the session, WebSocket hub and tick scheduler
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port          HTTP server port (overrides PORT)
  -db            Database type (overrides DB_TYPE)
  -dump-catalog  Write the active catalog to a .yaml/.json file and exit

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s timeout for active requests)
  2. Stop the tick scheduler
  3. Stop the offline catch-up and save the attached save
  4. Stop the hub and close the database connection

EXAMPLES:
  # Run with the default SQLite file
  ./server

  # Run against MySQL
  DB_TYPE=mysql DB_USER=circles DB_PASSWORD=secret ./server

  # Export the sample catalog for editing
  ./server -dump-catalog=catalog.yaml

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqldb/connection.go: Database drivers
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/circle-engine/api"
	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/config"
	"github.com/warp/circle-engine/factory"
	"github.com/warp/circle-engine/generic"
	"github.com/warp/circle-engine/store/sqldb"
)

func main() {
	// Flags
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	dbType := flag.String("db", "", "Database type: sqlite, mysql, mariadb, postgres, sqlserver (overrides DB_TYPE)")
	dumpCatalog := flag.String("dump-catalog", "", "Write the active catalog to this file and exit")
	flag.Parse()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbType != "" {
		cfg.DBType = *dbType
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	// Game
	catalogs := factory.NewCatalogFactory()
	var catalog *factory.Catalog
	if cfg.CatalogPath != "" {
		catalog, err = catalogs.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
		log.Printf("[Catalog] Loaded %d purchases from %s", len(catalog.Purchases), cfg.CatalogPath)
	}

	opts := circles.Options{
		ReincarnationCost: cfg.ReincarnationThreshold,
		SquarePower:       cfg.PrestigePower,
		PrestigeBasis:     circles.PrestigeBasis(cfg.PrestigeBasis),
		MaxOfflineTicks:   cfg.MaxOfflineTicks,
	}
	if catalog != nil {
		opts.Purchases = catalog.Purchases
	}
	game, problems, err := circles.NewGame(opts)
	if err != nil {
		log.Fatalf("Failed to build game: %v", err)
	}
	for _, p := range problems {
		log.Printf("[Catalog] Warning: %v", p)
	}
	if catalog != nil {
		game.Variables.Load(catalog.Variables)
	}

	if *dumpCatalog != "" {
		if err := writeCatalog(catalogs, game, *dumpCatalog); err != nil {
			log.Fatalf("Failed to write catalog: %v", err)
		}
		log.Printf("[Catalog] Wrote %s", *dumpCatalog)
		return
	}

	// Initialize store
	db, err := sqldb.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer sqldb.Close(db)

	store := sqldb.New(db)
	ctx := context.Background()
	created, err := store.EnsureSchema(ctx)
	if err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	if created {
		log.Printf("[Store] Created schema in %s", cfg.DatabaseName())
	}

	stored, err := store.LoadVariables(ctx)
	if err != nil {
		log.Fatalf("Failed to load variables: %v", err)
	}
	game.Variables.Load(stored)

	// Session
	rng, err := generic.NewRandom(cfg.RandomSeed)
	if err != nil {
		log.Fatalf("Failed to seed random source: %v", err)
	}
	session := generic.NewSession(game, store)
	session.AutosaveInterval = cfg.AutosaveInterval

	// Initialize handler
	handler := api.NewHandler(store, session, rng)
	handler.Catalog = catalogs
	hub := api.NewHub()
	hub.OnDrop = handler.Metrics.DroppedPush.Inc
	handler.Hub = hub
	session.Notifier = handler
	go hub.Run()

	scheduler := api.NewTickScheduler(session, cfg.TickInterval)
	scheduler.Metrics = handler.Metrics
	scheduler.Start()

	// Create router
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
		log.Printf("📊 API available at http://localhost:%s/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		log.Printf("Final save failed: %v", err)
	}
	hub.Stop()

	log.Println("Server stopped")
}

func writeCatalog(catalogs *factory.CatalogFactory, game *generic.Game, path string) error {
	vars := make(map[string]float64)
	for _, name := range game.Variables.Names() {
		vars[name] = game.Variables.Get(name)
	}
	data, err := catalogs.Encode(game.Purchases(), vars, factory.FormatOf(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
