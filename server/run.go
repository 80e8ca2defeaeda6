// Copyright 2025 Vendora
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"vendora/platform/config"
	"vendora/platform/models"
	"vendora/platform/shared/logger"
	"vendora/platform/tenant"
	"vendora/platform/tenantdb"
)

const shutdownTimeout = 30 * time.Second

// Dependencies collects everything the router needs. Run assembles the
// production set; tests assemble fakes.
type Dependencies struct {
	Config  *config.Config
	Store   tenant.Store
	Manager *tenantdb.Manager
	Bus     *tenantdb.EvictionBus
	Ready   ReadyCheck
}

// NewRouter builds the full HTTP surface: health and metrics on the bare
// router, the provisioning API behind JWT auth (saas mode only), and the
// tenant data plane behind the resolver.
func NewRouter(deps Dependencies) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, metricsMiddleware)

	health := &healthAPI{ready: deps.Ready, manager: deps.Manager}
	r.HandleFunc("/health", health.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", health.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if deps.Config.Deployment().ExposeProvisioning {
		admin := r.PathPrefix("/admin").Subrouter()
		admin.Use(adminAuthMiddleware(deps.Config.JWTSecret))
		NewAdminAPI(deps.Store, deps.Manager, deps.Bus).Register(admin)
	}

	resolver := NewResolver(deps.Store, deps.Manager, deps.Config)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(resolver.Middleware)
	api.HandleFunc("/tenant", handleTenantInfo).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: deps.Config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
	})
	return c.Handler(r)
}

// Run bootstraps the process: config, central registry connection, the
// connection cache, the eviction bus, and the HTTP server, then blocks
// until SIGINT/SIGTERM and drains in order.
func Run(configPath string) error {
	log := logger.New("server")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The central registry connection is eager: without it no request can
	// be routed, so the process fails fast instead of limping.
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout())
	central, err := tenantdb.Dial(dialCtx, cfg.Mongo, cfg.Mongo.CentralDatabase)
	cancel()
	if err != nil {
		return fmt.Errorf("central database unavailable: %w", err)
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_ = central.Disconnect(dctx)
	}()

	store := tenant.NewMongoStore(central.Database(cfg.Mongo.CentralDatabase))
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to prepare tenant registry: %w", err)
	}

	manager := tenantdb.NewManager(tenantdb.ManagerOptions{
		Dial:           tenantdb.NewDialer(cfg.Mongo),
		Registrar:      tenantdb.NewRegistrar(models.Catalog()),
		ConnectTimeout: cfg.Mongo.ConnectTimeout(),
	})

	var bus *tenantdb.EvictionBus
	if cfg.RedisURL != "" {
		bus, err = tenantdb.NewEvictionBus(ctx, cfg.RedisURL)
		if err != nil {
			// Degraded, not fatal: evictions stay local to this replica.
			log.Warn("", "", "Eviction bus unavailable, running local-only", map[string]interface{}{
				"error": err.Error(),
			})
			bus = nil
		} else {
			defer func() { _ = bus.Close() }()
			bus.Subscribe(ctx, func(databaseName string) {
				manager.Evict(context.Background(), databaseName)
			})
		}
	}

	router := NewRouter(Dependencies{
		Config:  cfg,
		Store:   store,
		Manager: manager,
		Bus:     bus,
		Ready: func(ctx context.Context) error {
			return central.Ping(ctx, readpref.Primary())
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("", "", "Server listening", map[string]interface{}{
			"port": cfg.Port,
			"mode": cfg.DeploymentMode,
		})
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("", "", "Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("", "", "HTTP drain failed", map[string]interface{}{"error": err.Error()})
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Error("", "", "Connection cache shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("", "", "Shutdown complete", nil)
	return nil
}
