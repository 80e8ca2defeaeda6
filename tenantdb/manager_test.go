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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendora/platform/models"
)

// lazyClient builds a driver client that never touches the network: the
// driver connects lazily and these tests never run an operation against it.
func lazyClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func noopBind(context.Context, *mongo.Database, models.CollectionSpec) error {
	return nil
}

func newTestManager(t *testing.T, dial DialFunc) *Manager {
	t.Helper()
	return NewManager(ManagerOptions{
		Dial:      dial,
		Registrar: NewRegistrarWithBind(models.Catalog(), noopBind),
	})
}

func TestGetOrCreateCachesHandle(t *testing.T) {
	var dials atomic.Int32
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		dials.Add(1)
		return lazyClient(t), nil
	})

	first, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	second, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), dials.Load())
	assert.Equal(t, "tenant_acme", first.DatabaseName())
	assert.NotNil(t, first.Models())
}

func TestGetOrCreateSingleFlight(t *testing.T) {
	var dials atomic.Int32
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		dials.Add(1)
		time.Sleep(50 * time.Millisecond) // widen the race window
		return lazyClient(t), nil
	})

	const callers = 20
	handles := make([]*Handle, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = m.GetOrCreate(context.Background(), "tenant_acme")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), dials.Load(), "concurrent callers must coalesce onto one dial")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, handles[0], handles[i])
	}
}

func TestGetOrCreateKeysByDatabase(t *testing.T) {
	var dials atomic.Int32
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		dials.Add(1)
		return lazyClient(t), nil
	})

	acme, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	globex, err := m.GetOrCreate(context.Background(), "tenant_globex")
	require.NoError(t, err)

	assert.NotSame(t, acme, globex)
	assert.Equal(t, int32(2), dials.Load())
	assert.Equal(t, []string{"tenant_acme", "tenant_globex"}, m.Databases())
}

func TestGetOrCreateFailureDoesNotPoisonCache(t *testing.T) {
	dialErr := errors.New("no route to host")
	var dials atomic.Int32
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		if dials.Add(1) == 1 {
			return nil, dialErr
		}
		return lazyClient(t), nil
	})

	_, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.Error(t, err)
	assert.True(t, IsConnectError(err))
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 0, m.Count(), "failed attempt must be evicted")

	// The next request retries from scratch and succeeds.
	h, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", h.DatabaseName())
	assert.Equal(t, int32(2), dials.Load())
}

func TestGetOrCreateFailureReleasesAllWaiters(t *testing.T) {
	dialErr := errors.New("connection refused")
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, dialErr
	})

	const callers = 10
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.GetOrCreate(context.Background(), "tenant_acme")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.Error(t, errs[i])
		assert.ErrorIs(t, errs[i], dialErr)
	}
	assert.Equal(t, 0, m.Count())
}

func TestGetOrCreateWaiterHonorsContext(t *testing.T) {
	gate := make(chan struct{})
	client := lazyClient(t)
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		<-gate
		return client, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.GetOrCreate(context.Background(), "tenant_acme")
	}()

	// Wait until the owner has claimed the slot.
	require.Eventually(t, func() bool { return m.Count() == 1 },
		time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.GetOrCreate(ctx, "tenant_acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	<-done
}

func TestGetOrCreateRegistrarFailureEvicts(t *testing.T) {
	bindErr := errors.New("index build rejected")
	var binds atomic.Int32
	registrar := NewRegistrarWithBind(models.Catalog(),
		func(context.Context, *mongo.Database, models.CollectionSpec) error {
			if binds.Add(1) == 1 {
				return bindErr
			}
			return nil
		})
	m := NewManager(ManagerOptions{
		Dial: func(ctx context.Context, databaseName string) (*mongo.Client, error) {
			return lazyClient(t), nil
		},
		Registrar: registrar,
	})

	_, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, bindErr)
	assert.Equal(t, 0, m.Count())

	h, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	assert.NotNil(t, h.Models())
}

func TestEvict(t *testing.T) {
	var dials atomic.Int32
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		dials.Add(1)
		return lazyClient(t), nil
	})

	_, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)

	assert.True(t, m.Evict(context.Background(), "tenant_acme"))
	assert.Equal(t, 0, m.Count())
	assert.False(t, m.Evict(context.Background(), "tenant_acme"),
		"second evict finds nothing")

	// Next request re-establishes.
	_, err = m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), dials.Load())
}

func TestShutdown(t *testing.T) {
	m := newTestManager(t, func(ctx context.Context, databaseName string) (*mongo.Client, error) {
		return lazyClient(t), nil
	})

	_, err := m.GetOrCreate(context.Background(), "tenant_acme")
	require.NoError(t, err)
	_, err = m.GetOrCreate(context.Background(), "tenant_globex")
	require.NoError(t, err)
	require.Equal(t, 2, m.Count())

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 0, m.Count())
}
