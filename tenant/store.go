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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionTenants is the registry collection name in the central database.
const CollectionTenants = "tenants"

// Store is the durable source of truth for tenant metadata. The server and
// resolver depend on this interface; MongoStore is the production
// implementation.
type Store interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	FindByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Create(ctx context.Context, draft *Draft) (*Tenant, error)
	SetActive(ctx context.Context, id string, active bool) error
	RotatePasskey(ctx context.Context, id string) (string, error)
	MarkSetupComplete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (*Tenant, error)
}

// MongoStore implements Store on the central Mongo database.
type MongoStore struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewMongoStore creates a Store backed by the given central database handle.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(CollectionTenants),
		logger:     log.New(os.Stdout, "[TENANT_REGISTRY] ", log.LstdFlags),
	}
}

// EnsureIndexes creates the unique indexes that back the registry's
// uniqueness invariants. Called once at startup, right after the central
// connection is established.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subdomain", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "databaseName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant indexes: %w", err)
	}
	return nil
}

// FindBySubdomain looks up a tenant by its normalized subdomain.
func (s *MongoStore) FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	subdomain = NormalizeSubdomain(subdomain)

	var t Tenant
	err := s.collection.FindOne(ctx, bson.M{"subdomain": subdomain}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("subdomain %q: %w", subdomain, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("registry lookup for %q failed: %w", subdomain, err)
	}
	return &t, nil
}

// FindByID looks up a tenant by its immutable id.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("tenant %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("registry lookup for %q failed: %w", id, err)
	}
	return &t, nil
}

// List returns all tenants, newest first.
func (s *MongoStore) List(ctx context.Context) ([]*Tenant, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("registry list failed: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var tenants []*Tenant
	if err := cursor.All(ctx, &tenants); err != nil {
		return nil, fmt.Errorf("registry list decode failed: %w", err)
	}
	return tenants, nil
}

// Create inserts a new tenant record. The subdomain is normalized, the
// database name derived when absent, and an initial setup passkey issued.
// Uniqueness is enforced by the registry's unique indexes; a collision
// surfaces as ErrDuplicate with no partial record left behind.
func (s *MongoStore) Create(ctx context.Context, draft *Draft) (*Tenant, error) {
	subdomain, databaseName, err := draft.validate()
	if err != nil {
		return nil, err
	}

	passkey, err := GeneratePasskey()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:                  uuid.NewString(),
		Name:                draft.Name,
		Subdomain:           subdomain,
		DatabaseName:        databaseName,
		Email:               draft.Email,
		IsActive:            true,
		IsSetupComplete:     false,
		SetupPasskey:        passkey,
		OrganizationDetails: draft.OrganizationDetails,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := s.collection.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("subdomain or database name already in use: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create tenant %q: %w", subdomain, err)
	}

	s.logger.Printf("Created tenant %s (subdomain=%s, database=%s)", t.ID, subdomain, databaseName)
	return t, nil
}

// SetActive toggles the active flag.
func (s *MongoStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateOne(ctx, id, bson.M{"isActive": active})
}

// RotatePasskey replaces the setup passkey with a freshly generated one and
// returns the new value. The old passkey stops working immediately.
func (s *MongoStore) RotatePasskey(ctx context.Context, id string) (string, error) {
	passkey, err := GeneratePasskey()
	if err != nil {
		return "", err
	}
	if err := s.updateOne(ctx, id, bson.M{"setupPasskey": passkey}); err != nil {
		return "", err
	}
	s.logger.Printf("Rotated setup passkey for tenant %s", id)
	return passkey, nil
}

// MarkSetupComplete records that first-run onboarding finished.
func (s *MongoStore) MarkSetupComplete(ctx context.Context, id string) error {
	return s.updateOne(ctx, id, bson.M{"isSetupComplete": true})
}

// Delete removes the registry record and returns the deleted tenant so the
// caller can evict its cached connection by database name.
func (s *MongoStore) Delete(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("tenant %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete tenant %q: %w", id, err)
	}

	s.logger.Printf("Deleted tenant %s (subdomain=%s, database=%s)", t.ID, t.Subdomain, t.DatabaseName)
	return &t, nil
}

func (s *MongoStore) updateOne(ctx context.Context, id string, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update tenant %q: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("tenant %q: %w", id, ErrNotFound)
	}
	return nil
}
