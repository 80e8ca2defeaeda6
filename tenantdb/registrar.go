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
	"log"
	"os"

	"go.mongodb.org/mongo-driver/mongo"

	"vendora/platform/models"
)

// BindFunc performs the driver-level work of binding one collection spec to
// a database: creating indexes, validators, whatever the deployment needs.
// Tests inject a no-op; production uses ensureIndexes.
type BindFunc func(ctx context.Context, db *mongo.Database, spec models.CollectionSpec) error

// Registrar binds the collection catalog to tenant database handles. The
// whole point of the type is the guard: each handle gets the catalog bound
// exactly once, no matter how many times EnsureRegistered runs against it.
type Registrar struct {
	specs  []models.CollectionSpec
	bind   BindFunc
	logger *log.Logger
}

// NewRegistrar creates a Registrar for the given catalog with the production
// bind function (index creation).
func NewRegistrar(specs []models.CollectionSpec) *Registrar {
	return NewRegistrarWithBind(specs, ensureIndexes)
}

// NewRegistrarWithBind creates a Registrar with a custom bind function.
func NewRegistrarWithBind(specs []models.CollectionSpec, bind BindFunc) *Registrar {
	return &Registrar{
		specs:  specs,
		bind:   bind,
		logger: log.New(os.Stdout, "[SCHEMA_REGISTRAR] ", log.LstdFlags),
	}
}

// EnsureRegistered binds every catalog collection to the handle that is not
// already bound, then returns the handle's model set. Calling it again on
// the same handle is a no-op that returns the same set. A bind failure
// leaves the handle partially registered; a retry resumes where it stopped.
func (r *Registrar) EnsureRegistered(ctx context.Context, h *Handle) (*ModelSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bound := 0
	for _, spec := range r.specs {
		if h.registered[spec.Name] {
			continue
		}
		if err := h.bindLocked(ctx, spec, r.bind); err != nil {
			return nil, err
		}
		bound++
	}

	if h.models == nil {
		h.models = newModelSet(h.databaseName, h.db, r.specs)
	}
	if bound > 0 {
		r.logger.Printf("Registered %d collections on %s", bound, h.databaseName)
	}
	return h.models, nil
}

// ensureIndexes is the production BindFunc. Mongo creates collections
// implicitly on first write, so binding reduces to syncing declared indexes,
// which CreateMany treats idempotently.
func ensureIndexes(ctx context.Context, db *mongo.Database, spec models.CollectionSpec) error {
	if len(spec.Indexes) == 0 {
		return nil
	}
	if _, err := db.Collection(spec.Name).Indexes().CreateMany(ctx, spec.Indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// ModelSet is the request-facing view of a registered handle: a fixed,
// name-checked catalog of collection accessors.
type ModelSet struct {
	databaseName string
	db           *mongo.Database
	names        map[string]bool
}

func newModelSet(databaseName string, db *mongo.Database, specs []models.CollectionSpec) *ModelSet {
	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		names[spec.Name] = true
	}
	return &ModelSet{databaseName: databaseName, db: db, names: names}
}

// DatabaseName returns the logical database behind this set.
func (ms *ModelSet) DatabaseName() string {
	return ms.databaseName
}

// Collection returns the accessor for a registered collection. Asking for a
// name outside the catalog is a bug in the caller and fails rather than
// silently creating a stray collection.
func (ms *ModelSet) Collection(name string) (*mongo.Collection, error) {
	if !ms.names[name] {
		return nil, fmt.Errorf("collection %q on %s: %w", name, ms.databaseName, ErrUnknownCollection)
	}
	return ms.db.Collection(name), nil
}
