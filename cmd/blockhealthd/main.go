package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riannbarbosa/BlockHealth/internal/authsync"
	"github.com/riannbarbosa/BlockHealth/internal/clinical"
	"github.com/riannbarbosa/BlockHealth/internal/documents"
	"github.com/riannbarbosa/BlockHealth/internal/gateway"
	"github.com/riannbarbosa/BlockHealth/internal/identity"
	"github.com/riannbarbosa/BlockHealth/internal/selfservice"
	"github.com/riannbarbosa/BlockHealth/pkg/blobstore"
	"github.com/riannbarbosa/BlockHealth/pkg/config"
	"github.com/riannbarbosa/BlockHealth/pkg/encryption"
	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// The registry and self-service store act under fixed component identities
// when calling into the clinical record store.
var (
	registryComponentID    = mustSubject("0x0000000000000000000000000000000000000101")
	selfServiceComponentID = mustSubject("0x0000000000000000000000000000000000000102")
)

func mustSubject(s string) types.SubjectID {
	id, err := types.ParseSubjectID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("blockhealthd", cfg.LogLevel)
	log.Info("Starting BlockHealth daemon")

	owner, err := types.ParseSubjectID(cfg.OwnerSubject)
	if err != nil {
		log.Fatal(fmt.Sprintf("Invalid owner subject: %v", err))
	}

	var blobs interfaces.BlobStore
	if cfg.BlobStore.Path == "" {
		log.Warn("No blob store path configured, using in-memory store")
		blobs = blobstore.NewMemory()
	} else {
		store, err := blobstore.OpenLevelDB(cfg.BlobStore.Path, log)
		if err != nil {
			log.Fatal(fmt.Sprintf("Failed to open blob store: %v", err))
		}
		defer store.Close()
		blobs = store
	}

	pipeline := encryption.NewPipeline(cfg.Encryption.Secret)
	if cfg.Encryption.Secret == "" {
		log.Warn("Encryption secret not configured; uploads will fail until it is set")
	}

	registry := identity.NewRegistry(owner, registryComponentID, log)
	propagator := authsync.NewPropagator(registry, log)
	registry.SetDownstream(propagator)

	clinicalStore := clinical.NewStore(propagator, registry, registryComponentID, selfServiceComponentID, log)
	selfStore := selfservice.NewStore(registry, clinicalStore, selfServiceComponentID, log)
	vault := documents.NewVault(pipeline, blobs, log)

	tokens := gateway.NewTokenValidator(cfg.JWT.SecretKey, cfg.JWT.Issuer)
	service := gateway.NewService(registry, clinicalStore, selfStore, vault, tokens, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      service.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(fmt.Sprintf("HTTP server failed: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error(fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
	log.Info("Server stopped")
}
