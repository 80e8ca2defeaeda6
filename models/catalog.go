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

package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection name constants. Use these instead of magic strings when
// requesting accessors from a ModelSet.
const (
	CollectionCustomers      = "customers"
	CollectionProducts       = "products"
	CollectionInvoices       = "invoices"
	CollectionPayments       = "payments"
	CollectionStockMovements = "stock_movements"
	CollectionCounters       = "counters"
	CollectionSettings       = "settings"
)

// CollectionSpec describes one collection the application binds onto every
// tenant database: its name and the indexes it must carry. The registrar in
// tenantdb treats this as an opaque (name, shape) pair.
type CollectionSpec struct {
	Name    string
	Indexes []mongo.IndexModel
}

// Catalog returns the full set of collection specs bound to every tenant
// database. The slice is rebuilt on each call so callers can't mutate the
// shared definition.
func Catalog() []CollectionSpec {
	return []CollectionSpec{
		{
			Name: CollectionCustomers,
			Indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetUnique(true).SetSparse(true),
				},
				{Keys: bson.D{{Key: "name", Value: 1}}},
			},
		},
		{
			Name: CollectionProducts,
			Indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "sku", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{Keys: bson.D{{Key: "category", Value: 1}}},
			},
		},
		{
			Name: CollectionInvoices,
			Indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "number", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
				{Keys: bson.D{{Key: "customerId", Value: 1}}},
				{Keys: bson.D{{Key: "issuedAt", Value: -1}}},
			},
		},
		{
			Name: CollectionPayments,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "invoiceId", Value: 1}}},
				{Keys: bson.D{{Key: "receivedAt", Value: -1}}},
			},
		},
		{
			Name: CollectionStockMovements,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "productId", Value: 1}}},
				{Keys: bson.D{{Key: "recordedAt", Value: -1}}},
			},
		},
		{
			Name: CollectionCounters,
			Indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "scope", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
			},
		},
		{
			// Singleton document per tenant; no secondary indexes needed.
			Name: CollectionSettings,
		},
	}
}

// Names returns the catalog collection names in declaration order.
func Names() []string {
	specs := Catalog()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}
