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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/platform/tenantdb"
)

func adminToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@vendora.app",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type adminFixture struct {
	router  http.Handler
	store   *fakeStore
	manager *tenantdb.Manager
	token   string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	cfg := saasConfig()
	store := newFakeStore()
	manager := testManager(t, nil)
	router := NewRouter(Dependencies{
		Config:  cfg,
		Store:   store,
		Manager: manager,
		Ready:   func(context.Context) error { return nil },
	})
	return &adminFixture{
		router:  router,
		store:   store,
		manager: manager,
		token:   adminToken(t, cfg.JWTSecret, RolePlatformAdmin),
	}
}

func (f *adminFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, "http://app.example.com"+path, &buf)
	req.Host = "app.example.com"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresPlatformAdminToken(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(http.MethodGet, "/admin/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no token")

	rec = f.do(http.MethodGet, "/admin/tenants", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "malformed token")

	wrongRole := adminToken(t, saasConfig().JWTSecret, "support")
	rec = f.do(http.MethodGet, "/admin/tenants", wrongRole, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "wrong role")

	wrongSecret := adminToken(t, "other-secret", RolePlatformAdmin)
	rec = f.do(http.MethodGet, "/admin/tenants", wrongSecret, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "wrong secret")
}

func TestAdminCreateTenantReturnsPasskeyOnce(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(http.MethodPost, "/admin/tenants", f.token, map[string]string{
		"name":      "Acme Corp",
		"subdomain": "acme",
		"email":     "owner@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created createTenantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "acme", created.Tenant.Subdomain)
	assert.Equal(t, "tenant_acme", created.Tenant.DatabaseName)
	assert.NotEmpty(t, created.SetupPasskey)

	// Creation never dials the tenant database.
	assert.Equal(t, 0, f.manager.Count())

	// The list never shows passkeys again.
	rec = f.do(http.MethodGet, "/admin/tenants", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.SetupPasskey)
}

func TestAdminCreateDuplicateSubdomainConflicts(t *testing.T) {
	f := newAdminFixture(t)
	body := map[string]string{"name": "Acme", "subdomain": "acme"}

	rec := f.do(http.MethodPost, "/admin/tenants", f.token, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/admin/tenants", f.token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, CodeDuplicate, envelope.Code)
}

func TestAdminCreateRejectsInvalidSubdomain(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(http.MethodPost, "/admin/tenants", f.token, map[string]string{
		"name":      "Acme",
		"subdomain": "not a label",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRotatePasskey(t *testing.T) {
	f := newAdminFixture(t)
	seeded := activeTenant("acme")
	f.store.byID[seeded.ID] = seeded

	rec := f.do(http.MethodPost, "/admin/tenants/"+seeded.ID+"/passkey", f.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["setupPasskey"])
	assert.NotEqual(t, "K4TW-9HRC", resp["setupPasskey"], "old passkey must be replaced")

	rec = f.do(http.MethodPost, "/admin/tenants/nope/passkey", f.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSetActive(t *testing.T) {
	f := newAdminFixture(t)
	seeded := activeTenant("acme")
	f.store.byID[seeded.ID] = seeded

	rec := f.do(http.MethodPut, "/admin/tenants/"+seeded.ID+"/active", f.token, map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	rec = f.do(http.MethodPut, "/admin/tenants/"+seeded.ID+"/active", f.token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing active flag")
}

func TestAdminSetupComplete(t *testing.T) {
	f := newAdminFixture(t)
	seeded := activeTenant("acme")
	f.store.byID[seeded.ID] = seeded

	rec := f.do(http.MethodPost, "/admin/tenants/"+seeded.ID+"/setup-complete", f.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := f.store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSetupComplete)
}

func TestAdminDeleteEvictsCachedConnection(t *testing.T) {
	f := newAdminFixture(t)
	seeded := activeTenant("acme")
	f.store.byID[seeded.ID] = seeded

	// Warm the cache the way a live tenant would.
	_, err := f.manager.GetOrCreate(context.Background(), seeded.DatabaseName)
	require.NoError(t, err)
	require.Equal(t, 1, f.manager.Count())

	rec := f.do(http.MethodDelete, "/admin/tenants/"+seeded.ID, f.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 0, f.manager.Count(), "deletion must evict the cached connection")
	_, err = f.store.FindByID(context.Background(), seeded.ID)
	assert.Error(t, err)

	rec = f.do(http.MethodDelete, "/admin/tenants/"+seeded.ID, f.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSurfaceHiddenInSelfhostedMode(t *testing.T) {
	router := NewRouter(Dependencies{
		Config:  selfhostedConfig(),
		Store:   newFakeStore(),
		Manager: testManager(t, nil),
		Ready:   func(context.Context) error { return nil },
	})

	req := httptest.NewRequest(http.MethodGet, "http://localhost/admin/tenants", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
