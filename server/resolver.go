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
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"vendora/platform/config"
	"vendora/platform/shared/logger"
	"vendora/platform/tenant"
	"vendora/platform/tenantdb"
)

// Resolver routes each request to its tenant database. It owns the whole
// chain: host parsing, registry lookup, lifecycle checks, and connection
// establishment through the cache.
type Resolver struct {
	store   tenant.Store
	manager *tenantdb.Manager
	cfg     *config.Config
	logger  *logger.Logger
}

// NewResolver wires a Resolver from its dependencies.
func NewResolver(store tenant.Store, manager *tenantdb.Manager, cfg *config.Config) *Resolver {
	return &Resolver{
		store:   store,
		manager: manager,
		cfg:     cfg,
		logger:  logger.New("tenant-resolver"),
	}
}

// Middleware resolves the request's tenant before the handler runs.
//
// Reserved subdomains and the bare root domain take the central branch: no
// tenant lookup, no cache touch, request marked central. Everything else is
// looked up in the registry; misses get 404, disabled tenants 403, and
// establishment failures 503 — none of which leave a cache entry behind.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rs.cfg.Deployment().SubdomainRouting {
			rs.resolveSubdomain(w, r, next, rs.cfg.DefaultTenant)
			return
		}

		subdomain, err := rs.subdomainFromHost(r.Host)
		if err != nil {
			resolverOutcomes.WithLabelValues("invalid_host").Inc()
			writeError(w, r, http.StatusNotFound, CodeInvalidHost, err.Error())
			return
		}

		if rs.cfg.IsReservedSubdomain(subdomain) {
			resolverOutcomes.WithLabelValues("central").Inc()
			next.ServeHTTP(w, r.WithContext(withCentral(r.Context())))
			return
		}

		rs.resolveSubdomain(w, r, next, subdomain)
	})
}

func (rs *Resolver) resolveSubdomain(w http.ResponseWriter, r *http.Request, next http.Handler, subdomain string) {
	ctx := r.Context()
	requestID := RequestIDFromContext(ctx)

	t, err := rs.store.FindBySubdomain(ctx, subdomain)
	if errors.Is(err, tenant.ErrNotFound) {
		resolverOutcomes.WithLabelValues("not_found").Inc()
		writeError(w, r, http.StatusNotFound, CodeTenantNotFound, "tenant not found")
		return
	}
	if err != nil {
		resolverOutcomes.WithLabelValues("registry_error").Inc()
		rs.logger.Error(subdomain, requestID, "Registry lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, r, http.StatusServiceUnavailable, CodeTenantUnavailable, "tenant registry unavailable")
		return
	}

	if !t.IsActive {
		resolverOutcomes.WithLabelValues("disabled").Inc()
		writeError(w, r, http.StatusForbidden, CodeTenantDisabled, "tenant is disabled")
		return
	}

	handle, err := rs.manager.GetOrCreate(ctx, t.DatabaseName)
	if err != nil {
		resolverOutcomes.WithLabelValues("connect_failed").Inc()
		rs.logger.Error(t.Subdomain, requestID, "Tenant database unavailable", map[string]interface{}{
			"database": t.DatabaseName,
			"error":    err.Error(),
		})
		writeError(w, r, http.StatusServiceUnavailable, CodeTenantUnavailable, "tenant database unavailable")
		return
	}

	resolverOutcomes.WithLabelValues("resolved").Inc()
	next.ServeHTTP(w, r.WithContext(withTenant(ctx, t.Redacted(), handle.Models())))
}

// subdomainFromHost extracts the leftmost label of a host under the
// configured root domain. The bare root domain yields "", which
// IsReservedSubdomain treats as central.
func (rs *Resolver) subdomainFromHost(host string) (string, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	root := strings.ToLower(rs.cfg.RootDomain)

	if host == root {
		return "", nil
	}
	if !strings.HasSuffix(host, "."+root) {
		return "", errors.New("host is not under the configured root domain")
	}

	// acme.eu.vendora.app → "acme": only the leftmost label names the tenant.
	labels := strings.Split(strings.TrimSuffix(host, "."+root), ".")
	return labels[0], nil
}

// ResolveForRequest is the programmatic form of the middleware, used by
// handlers that need a tenant handle outside the HTTP chain.
func (rs *Resolver) ResolveForRequest(ctx context.Context, subdomain string) (*tenant.Tenant, *tenantdb.ModelSet, error) {
	t, err := rs.store.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, nil, err
	}
	if !t.IsActive {
		return nil, nil, tenant.ErrDisabled
	}
	handle, err := rs.manager.GetOrCreate(ctx, t.DatabaseName)
	if err != nil {
		return nil, nil, err
	}
	return t.Redacted(), handle.Models(), nil
}

var resolverOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "vendora_resolver_outcomes_total",
	Help: "Tenant resolver outcomes by kind",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(resolverOutcomes)
}
