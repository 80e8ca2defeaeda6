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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"vendora/platform/shared/logger"
	"vendora/platform/tenant"
	"vendora/platform/tenantdb"
)

// AdminAPI is the tenant provisioning surface. Exposed only in saas mode,
// always behind adminAuthMiddleware.
type AdminAPI struct {
	store   tenant.Store
	manager *tenantdb.Manager
	bus     *tenantdb.EvictionBus
	logger  *logger.Logger
}

// NewAdminAPI wires the provisioning handlers. bus may be nil; eviction then
// stays local to this replica.
func NewAdminAPI(store tenant.Store, manager *tenantdb.Manager, bus *tenantdb.EvictionBus) *AdminAPI {
	return &AdminAPI{
		store:   store,
		manager: manager,
		bus:     bus,
		logger:  logger.New("admin-api"),
	}
}

// Register mounts the provisioning routes on the given (already
// auth-gated) router.
func (a *AdminAPI) Register(r *mux.Router) {
	r.HandleFunc("/tenants", a.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/tenants", a.handleList).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{id}/passkey", a.handleRotatePasskey).Methods(http.MethodPost)
	r.HandleFunc("/tenants/{id}/active", a.handleSetActive).Methods(http.MethodPut)
	r.HandleFunc("/tenants/{id}/setup-complete", a.handleSetupComplete).Methods(http.MethodPost)
	r.HandleFunc("/tenants/{id}", a.handleDelete).Methods(http.MethodDelete)
}

type createTenantRequest struct {
	Name                string `json:"name"`
	Subdomain           string `json:"subdomain"`
	Email               string `json:"email"`
	OrganizationDetails bson.M `json:"organizationDetails,omitempty"`
}

// createTenantResponse is the only payload that ever carries a fresh
// passkey; the Tenant type itself refuses to serialize one.
type createTenantResponse struct {
	Tenant       *tenant.Tenant `json:"tenant"`
	SetupPasskey string         `json:"setupPasskey"`
}

func (a *AdminAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	created, err := a.store.Create(r.Context(), &tenant.Draft{
		Name:                req.Name,
		Subdomain:           req.Subdomain,
		Email:               req.Email,
		OrganizationDetails: req.OrganizationDetails,
	})
	if errors.Is(err, tenant.ErrDuplicate) {
		writeError(w, r, http.StatusConflict, CodeDuplicate, "subdomain or database name already in use")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	a.logger.Info(created.Subdomain, RequestIDFromContext(r.Context()), "Tenant created", map[string]interface{}{
		"tenantId": created.ID,
		"database": created.DatabaseName,
	})

	// The passkey leaves the system exactly once, here.
	writeJSON(w, http.StatusCreated, createTenantResponse{
		Tenant:       created,
		SetupPasskey: created.SetupPasskey,
	})
}

func (a *AdminAPI) handleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.store.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "failed to list tenants")
		return
	}

	redacted := make([]*tenant.Tenant, len(tenants))
	for i, t := range tenants {
		redacted[i] = t.Redacted()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": redacted})
}

func (a *AdminAPI) handleRotatePasskey(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	passkey, err := a.store.RotatePasskey(r.Context(), id)
	if errors.Is(err, tenant.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "tenant not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "failed to rotate passkey")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"setupPasskey": passkey})
}

func (a *AdminAPI) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, "body must carry an active flag")
		return
	}

	err := a.store.SetActive(r.Context(), id, *req.Active)
	if errors.Is(err, tenant.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "tenant not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "failed to update tenant")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": *req.Active})
}

func (a *AdminAPI) handleSetupComplete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := a.store.MarkSetupComplete(r.Context(), id)
	if errors.Is(err, tenant.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "tenant not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "failed to update tenant")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	deleted, err := a.store.Delete(ctx, id)
	if errors.Is(err, tenant.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "tenant not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "failed to delete tenant")
		return
	}

	// Local eviction first; the bus tells the other replicas.
	a.manager.Evict(ctx, deleted.DatabaseName)
	if a.bus != nil {
		if err := a.bus.Publish(ctx, deleted.DatabaseName); err != nil {
			a.logger.Warn(deleted.Subdomain, RequestIDFromContext(ctx), "Eviction broadcast failed", map[string]interface{}{
				"database": deleted.DatabaseName,
				"error":    err.Error(),
			})
		}
	}

	a.logger.Info(deleted.Subdomain, RequestIDFromContext(ctx), "Tenant deleted", map[string]interface{}{
		"tenantId": deleted.ID,
		"database": deleted.DatabaseName,
	})
	w.WriteHeader(http.StatusNoContent)
}
