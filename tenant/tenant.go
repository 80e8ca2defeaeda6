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
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Typed errors for registry operations. Callers branch on these with
// errors.Is; the resolver translates them into HTTP rejections.
var (
	// ErrNotFound means no tenant matches the given subdomain or id.
	ErrNotFound = errors.New("tenant not found")

	// ErrDisabled means the tenant exists but isActive is false. Distinct
	// from ErrNotFound so operators can tell a dead link from a suspended
	// customer.
	ErrDisabled = errors.New("tenant disabled")

	// ErrDuplicate means the subdomain or database name is already taken.
	ErrDuplicate = errors.New("duplicate tenant")
)

// DatabaseNamePrefix keeps the subdomain -> database mapping legible:
// subdomain "acme" gets database "tenant_acme" unless a name was supplied
// explicitly at creation time.
const DatabaseNamePrefix = "tenant_"

// subdomainRegex matches a single valid DNS label.
var subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Tenant is one customer organization, isolated at the logical-database
// level. Stored in the central registry database, collection "tenants".
type Tenant struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`

	// Subdomain is the routing key extracted from request hostnames.
	// Always stored lowercase; unique.
	Subdomain string `bson:"subdomain" json:"subdomain"`

	// DatabaseName identifies the tenant's logical database. Unique and
	// immutable after creation: cached connections are keyed by it.
	DatabaseName string `bson:"databaseName" json:"databaseName"`

	Email string `bson:"email" json:"email"`

	IsActive        bool `bson:"isActive" json:"isActive"`
	IsSetupComplete bool `bson:"isSetupComplete" json:"isSetupComplete"`

	// SetupPasskey is the one-time onboarding secret. Never serialized to
	// JSON; admin create/rotate responses carry the fresh value in a
	// dedicated field instead.
	SetupPasskey string `bson:"setupPasskey" json:"-"`

	// OrganizationDetails is free-form metadata owned by the application
	// layer; opaque to the data plane.
	OrganizationDetails bson.M `bson:"organizationDetails,omitempty" json:"organizationDetails,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Redacted returns a copy safe to hand to non-administrative callers: the
// setup passkey is stripped. Every egress outside the admin surface goes
// through this.
func (t *Tenant) Redacted() *Tenant {
	if t == nil {
		return nil
	}
	clone := *t
	clone.SetupPasskey = ""
	return &clone
}

// Draft holds the caller-supplied fields for tenant creation.
type Draft struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Email     string `json:"email"`

	// DatabaseName is optional; derived from the subdomain when empty.
	DatabaseName string `json:"databaseName,omitempty"`

	OrganizationDetails bson.M `json:"organizationDetails,omitempty"`
}

// NormalizeSubdomain lowercases and trims a candidate subdomain. Lookups and
// writes both normalize, which is what makes FindBySubdomain effectively
// case-insensitive.
func NormalizeSubdomain(subdomain string) string {
	return strings.ToLower(strings.TrimSpace(subdomain))
}

// ValidateSubdomain checks that a normalized subdomain is a usable DNS label.
func ValidateSubdomain(subdomain string) error {
	if subdomain == "" {
		return fmt.Errorf("subdomain is required")
	}
	if !subdomainRegex.MatchString(subdomain) {
		return fmt.Errorf("invalid subdomain %q: must be a lowercase DNS label", subdomain)
	}
	return nil
}

// DatabaseNameFor derives the logical database name for a subdomain.
func DatabaseNameFor(subdomain string) string {
	return DatabaseNamePrefix + subdomain
}

// validate normalizes and checks a draft, returning the effective subdomain
// and database name.
func (d *Draft) validate() (subdomain, databaseName string, err error) {
	subdomain = NormalizeSubdomain(d.Subdomain)
	if err := ValidateSubdomain(subdomain); err != nil {
		return "", "", err
	}
	if d.Name == "" {
		return "", "", fmt.Errorf("name is required")
	}

	databaseName = d.DatabaseName
	if databaseName == "" {
		databaseName = DatabaseNameFor(subdomain)
	}
	return subdomain, databaseName, nil
}
