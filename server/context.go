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
	"net/http"

	"github.com/google/uuid"

	"vendora/platform/tenant"
	"vendora/platform/tenantdb"
)

type contextKey string

const (
	contextKeyTenant    contextKey = "tenant"
	contextKeyModels    contextKey = "models"
	contextKeyRequestID contextKey = "requestID"
	contextKeyCentral   contextKey = "central"
)

// RequestIDHeader carries the per-request id on responses and can be
// supplied by upstream proxies on requests.
const RequestIDHeader = "X-Request-ID"

// TenantFromContext returns the resolved tenant, passkey already stripped.
// Nil on central-branch and unresolved requests.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(contextKeyTenant).(*tenant.Tenant)
	return t
}

// ModelsFromContext returns the tenant's registered model set. Nil on
// central-branch and unresolved requests.
func ModelsFromContext(ctx context.Context) *tenantdb.ModelSet {
	ms, _ := ctx.Value(contextKeyModels).(*tenantdb.ModelSet)
	return ms
}

// RequestIDFromContext returns the request id assigned by the middleware,
// or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// IsCentralRequest reports whether the resolver routed this request to the
// privileged central branch (reserved subdomain or bare root domain).
func IsCentralRequest(ctx context.Context) bool {
	central, _ := ctx.Value(contextKeyCentral).(bool)
	return central
}

func withTenant(ctx context.Context, t *tenant.Tenant, ms *tenantdb.ModelSet) context.Context {
	ctx = context.WithValue(ctx, contextKeyTenant, t)
	return context.WithValue(ctx, contextKeyModels, ms)
}

func withCentral(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyCentral, true)
}

// requestIDMiddleware assigns a uuid to every request (honoring one supplied
// by a trusted upstream) and reflects it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
