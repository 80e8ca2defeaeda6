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
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"vendora/platform/config"
)

// NewDialer returns the production DialFunc: it expands the configured URI
// template with the target database name, connects with the configured pool
// bounds, and ping-verifies the deployment before handing the client back.
func NewDialer(cfg config.MongoConfig) DialFunc {
	return func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		return Dial(ctx, cfg, databaseName)
	}
}

// Dial establishes and verifies a client for one logical database.
func Dial(ctx context.Context, cfg config.MongoConfig, databaseName string) (*mongo.Client, error) {
	uri, err := buildURI(cfg.URI, databaseName)
	if err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetMinPoolSize(uint64(cfg.MinPoolSize)).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetAppName("vendora-server")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", databaseName, err)
	}

	// mongo.Connect is lazy; the ping is what proves the deployment is
	// actually reachable before the handle enters the cache.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping %s: %w", databaseName, err)
	}
	return client, nil
}

// buildURI rewrites the path component of the configured URI template to the
// target database, preserving credentials, hosts and query options. Plain
// string surgery rather than url.Parse: multi-host seed lists are not valid
// URLs but are valid Mongo connection strings.
func buildURI(template, databaseName string) (string, error) {
	if databaseName == "" {
		return "", fmt.Errorf("database name is required")
	}
	idx := strings.Index(template, "://")
	if idx < 0 || !strings.HasPrefix(template, "mongodb") {
		return "", fmt.Errorf("invalid mongo uri %q", template)
	}

	hosts := template[idx+3:]
	query := ""
	if q := strings.Index(hosts, "?"); q >= 0 {
		query = hosts[q:]
		hosts = hosts[:q]
	}
	// Drop whatever database the template carries; the cache keys on the
	// name we are about to splice in.
	if slash := strings.Index(hosts, "/"); slash >= 0 {
		hosts = hosts[:slash]
	}

	return template[:idx+3] + hosts + "/" + databaseName + query, nil
}
