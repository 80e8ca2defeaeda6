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

package tenantdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"vendora/platform/models"
)

// Handle is a live, schema-registered connection to one logical tenant
// database. Handles are created by the Manager and shared across requests;
// all methods are safe for concurrent use.
type Handle struct {
	databaseName string
	client       *mongo.Client
	db           *mongo.Database

	mu         sync.Mutex
	registered map[string]bool
	models     *ModelSet
}

func newHandle(databaseName string, client *mongo.Client) *Handle {
	return &Handle{
		databaseName: databaseName,
		client:       client,
		db:           client.Database(databaseName),
		registered:   make(map[string]bool),
	}
}

// DatabaseName returns the logical database this handle is bound to.
func (h *Handle) DatabaseName() string {
	return h.databaseName
}

// Database exposes the underlying driver database for callers that need to
// run commands outside the registered catalog (health checks, migrations).
func (h *Handle) Database() *mongo.Database {
	return h.db
}

// Models returns the registered model set, or nil if the registrar has not
// run yet. Handles vended by the Manager are always registered.
func (h *Handle) Models() *ModelSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.models
}

// Bind registers a single collection schema on this handle. Binding the same
// collection twice is a conflict: the second caller is clobbering state the
// first caller depends on. The registrar's idempotent path checks the guard
// before calling this.
func (h *Handle) Bind(ctx context.Context, spec models.CollectionSpec, bind BindFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bindLocked(ctx, spec, bind)
}

func (h *Handle) bindLocked(ctx context.Context, spec models.CollectionSpec, bind BindFunc) error {
	if h.registered[spec.Name] {
		return fmt.Errorf("collection %q on %s: %w", spec.Name, h.databaseName, ErrSchemaConflict)
	}
	if err := bind(ctx, h.db, spec); err != nil {
		return fmt.Errorf("failed to bind collection %q on %s: %w", spec.Name, h.databaseName, err)
	}
	h.registered[spec.Name] = true
	return nil
}

// RegisteredCollections returns the names bound so far, sorted.
func (h *Handle) RegisteredCollections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.registered))
	for name := range h.registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Handle) disconnect(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}
