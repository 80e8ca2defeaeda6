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

	"github.com/go-redis/redis/v8"
)

// EvictionChannel is the pub/sub channel eviction notices travel on.
const EvictionChannel = "vendora:tenantdb:evictions"

// EvictionBus fans tenant eviction notices out to every server replica.
// When a tenant is deleted on one instance, the others must drop their
// cached connection too; Redis pub/sub carries the database name across.
// The bus is optional: single-replica deployments run without one and the
// local Evict call is all that happens.
type EvictionBus struct {
	client *redis.Client
	logger *log.Logger
}

// NewEvictionBus connects to Redis and verifies the connection.
func NewEvictionBus(ctx context.Context, redisURL string) (*EvictionBus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &EvictionBus{
		client: client,
		logger: log.New(os.Stdout, "[EVICTION_BUS] ", log.LstdFlags),
	}, nil
}

// Publish broadcasts an eviction notice for databaseName.
func (b *EvictionBus) Publish(ctx context.Context, databaseName string) error {
	if err := b.client.Publish(ctx, EvictionChannel, databaseName).Err(); err != nil {
		return fmt.Errorf("failed to publish eviction for %s: %w", databaseName, err)
	}
	b.logger.Printf("Published eviction for %s", databaseName)
	return nil
}

// Subscribe delivers eviction notices to fn on a background goroutine until
// ctx is canceled or the bus is closed.
func (b *EvictionBus) Subscribe(ctx context.Context, fn func(databaseName string)) {
	pubsub := b.client.Subscribe(ctx, EvictionChannel)

	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.logger.Printf("Received eviction for %s", msg.Payload)
				fn(msg.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close releases the Redis connection.
func (b *EvictionBus) Close() error {
	return b.client.Close()
}
