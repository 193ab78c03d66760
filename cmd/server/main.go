package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridgames/gridlock/pkg/api"
	"github.com/gridgames/gridlock/pkg/hub"
	"github.com/gridgames/gridlock/pkg/log"
	"github.com/gridgames/gridlock/pkg/repositories"
	"github.com/gridgames/gridlock/pkg/session"
	"github.com/gridgames/gridlock/pkg/version"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	repositoryType := flag.String("repository", "sqlite", "Repository backend (memory, sqlite, postgres)")
	sqlitePath := flag.String("sqlite-path", "gridlock.db", "Path to the SQLite database file")
	certFile := flag.String("cert-file", "", "TLS certificate file")
	keyFile := flag.String("key-file", "", "TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	switch *repositoryType {
	case "memory":
		repository = repositories.NewInMemoryRepository()
	case "sqlite":
		repository, err = repositories.NewSQLiteRepository(ctx, *sqlitePath)
		if err != nil {
			panic(fmt.Sprintf("Failed to open SQLite repository: %v", err))
		}
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			panic("DATABASE_URL environment variable must be set")
		}
		repository = repositories.NewPostgresRepository(ctx, connStr)
	default:
		panic(fmt.Sprintf("Unknown repository backend: %s", *repositoryType))
	}
	defer repository.Close(context.Background())

	broadcastHub := hub.NewHub()

	directory := session.NewDirectory(session.NewDirectoryOptions{
		Repository:  repository,
		Broadcaster: broadcastHub,
	})
	defer directory.Close()

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:      *port,
		TLS:       tlsConfig,
		Directory: directory,
		Hub:       broadcastHub,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
