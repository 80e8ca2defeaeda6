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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora/platform/config"
	"vendora/platform/models"
	"vendora/platform/tenant"
	"vendora/platform/tenantdb"
)

// fakeStore is an in-memory tenant.Store for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]*tenant.Tenant
	listErr error
}

func newFakeStore(tenants ...*tenant.Tenant) *fakeStore {
	s := &fakeStore{byID: make(map[string]*tenant.Tenant)}
	for _, t := range tenants {
		s.byID[t.ID] = t
	}
	return s
}

func (s *fakeStore) FindBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subdomain = tenant.NormalizeSubdomain(subdomain)
	for _, t := range s.byID {
		if t.Subdomain == subdomain {
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("subdomain %q: %w", subdomain, tenant.ErrNotFound)
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", id, tenant.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (s *fakeStore) List(_ context.Context) ([]*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*tenant.Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, draft *tenant.Draft) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subdomain := tenant.NormalizeSubdomain(draft.Subdomain)
	if draft.Name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if err := tenant.ValidateSubdomain(subdomain); err != nil {
		return nil, err
	}
	for _, existing := range s.byID {
		if existing.Subdomain == subdomain {
			return nil, fmt.Errorf("subdomain %q: %w", subdomain, tenant.ErrDuplicate)
		}
	}

	passkey, err := tenant.GeneratePasskey()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &tenant.Tenant{
		ID:           uuid.NewString(),
		Name:         draft.Name,
		Subdomain:    subdomain,
		DatabaseName: tenant.DatabaseNameFor(subdomain),
		Email:        draft.Email,
		IsActive:     true,
		SetupPasskey: passkey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[t.ID] = t
	copied := *t
	return &copied, nil
}

func (s *fakeStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("tenant %q: %w", id, tenant.ErrNotFound)
	}
	t.IsActive = active
	return nil
}

func (s *fakeStore) RotatePasskey(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return "", fmt.Errorf("tenant %q: %w", id, tenant.ErrNotFound)
	}
	passkey, err := tenant.GeneratePasskey()
	if err != nil {
		return "", err
	}
	t.SetupPasskey = passkey
	return passkey, nil
}

func (s *fakeStore) MarkSetupComplete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("tenant %q: %w", id, tenant.ErrNotFound)
	}
	t.IsSetupComplete = true
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", id, tenant.ErrNotFound)
	}
	delete(s.byID, id)
	return t, nil
}

func activeTenant(subdomain string) *tenant.Tenant {
	now := time.Now().UTC()
	return &tenant.Tenant{
		ID:           uuid.NewString(),
		Name:         subdomain,
		Subdomain:    subdomain,
		DatabaseName: tenant.DatabaseNameFor(subdomain),
		IsActive:     true,
		SetupPasskey: "K4TW-9HRC",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// lazyClient builds a driver client that never touches the network.
func lazyClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func testManager(t *testing.T, dial tenantdb.DialFunc) *tenantdb.Manager {
	t.Helper()
	if dial == nil {
		dial = func(ctx context.Context, databaseName string) (*mongo.Client, error) {
			return lazyClient(t), nil
		}
	}
	return tenantdb.NewManager(tenantdb.ManagerOptions{
		Dial: dial,
		Registrar: tenantdb.NewRegistrarWithBind(models.Catalog(),
			func(context.Context, *mongo.Database, models.CollectionSpec) error { return nil }),
	})
}

func saasConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		DeploymentMode:     "saas",
		RootDomain:         "example.com",
		ReservedSubdomains: []string{"app", "admin", "www"},
		DefaultTenant:      "default",
		JWTSecret:          "test-secret",
		Mongo: config.MongoConfig{
			URI:             "mongodb://127.0.0.1:27017",
			CentralDatabase: "vendora_central",
		},
	}
}

func selfhostedConfig() *config.Config {
	cfg := saasConfig()
	cfg.DeploymentMode = "selfhosted"
	cfg.RootDomain = ""
	return cfg
}
