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
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// DialFunc establishes a verified client for one logical database. The
// production implementation is NewDialer; tests inject fakes.
type DialFunc func(ctx context.Context, databaseName string) (*mongo.Client, error)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultDisconnectTimeout = 5 * time.Second
)

type entryState int

const (
	stateConnecting entryState = iota
	stateReady
)

func (s entryState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// entry is one cache slot. The owner goroutine that created the entry fills
// handle/err and closes ready; everyone else blocks on ready and then reads
// those fields without further synchronization.
type entry struct {
	state  entryState
	ready  chan struct{}
	handle *Handle
	err    error
}

// Manager is the per-process connection cache: at most one live client per
// logical database name, created lazily and shared by every request routed
// to that tenant.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	dial           DialFunc
	registrar      *Registrar
	connectTimeout time.Duration
	logger         *log.Logger
}

// ManagerOptions configures a Manager. Dial and Registrar are required.
type ManagerOptions struct {
	Dial           DialFunc
	Registrar      *Registrar
	ConnectTimeout time.Duration
}

// NewManager creates an empty connection cache.
func NewManager(opts ManagerOptions) *Manager {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &Manager{
		entries:        make(map[string]*entry),
		dial:           opts.Dial,
		registrar:      opts.Registrar,
		connectTimeout: timeout,
		logger:         log.New(os.Stdout, "[TENANT_DB] ", log.LstdFlags),
	}
}

// GetOrCreate returns the cached handle for databaseName, establishing it
// first if necessary. Concurrent callers for the same database coalesce onto
// a single establishment attempt: exactly one goroutine dials, the rest wait
// on the entry and share its outcome. A failed attempt evicts the entry
// before any waiter is released, so the next call retries from scratch
// instead of observing a poisoned slot.
func (m *Manager) GetOrCreate(ctx context.Context, databaseName string) (*Handle, error) {
	m.mu.Lock()
	if e, ok := m.entries[databaseName]; ok {
		m.mu.Unlock()
		return m.await(ctx, databaseName, e)
	}

	e := &entry{state: stateConnecting, ready: make(chan struct{})}
	m.entries[databaseName] = e
	m.mu.Unlock()

	cacheMisses.Inc()
	return m.establish(databaseName, e)
}

// await blocks until the entry's owner finishes, honoring the caller's
// context. The entry itself stays in the cache either way; only the owner
// evicts on failure.
func (m *Manager) await(ctx context.Context, databaseName string, e *entry) (*Handle, error) {
	select {
	case <-e.ready:
	default:
		coalescedWaits.Inc()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for connection to %s: %w", databaseName, ctx.Err())
		}
	}

	if e.err != nil {
		return nil, e.err
	}
	cacheHits.Inc()
	return e.handle, nil
}

// establish runs on the owner goroutine. The dial is bounded by the
// manager's own timeout rather than the first caller's request context:
// waiters piggybacking on this attempt must not be failed by an unrelated
// client hanging up.
func (m *Manager) establish(databaseName string, e *entry) (*Handle, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.connectTimeout)
	defer cancel()

	handle, err := m.connect(ctx, databaseName)
	if err != nil {
		connectFailures.Inc()
		m.logger.Printf("Connection to %s failed after %v: %v", databaseName, time.Since(start), err)

		// Evict before releasing waiters: anyone arriving after the
		// close must find an empty slot and start a fresh attempt.
		m.mu.Lock()
		delete(m.entries, databaseName)
		m.mu.Unlock()

		e.err = NewConnectError(databaseName, err)
		close(e.ready)
		return nil, e.err
	}

	e.handle = handle
	e.state = stateReady
	close(e.ready)

	connectDuration.Observe(time.Since(start).Seconds())
	m.logger.Printf("Connected to %s in %v", databaseName, time.Since(start))
	return handle, nil
}

func (m *Manager) connect(ctx context.Context, databaseName string) (*Handle, error) {
	client, err := m.dial(ctx, databaseName)
	if err != nil {
		return nil, err
	}

	handle := newHandle(databaseName, client)
	if m.registrar != nil {
		if _, err := m.registrar.EnsureRegistered(ctx, handle); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}
	return handle, nil
}

// Evict removes the entry for databaseName and disconnects its client once
// the in-flight establishment, if any, settles. Returns true if an entry
// was present. Used on tenant deletion and on eviction bus messages.
func (m *Manager) Evict(ctx context.Context, databaseName string) bool {
	m.mu.Lock()
	e, ok := m.entries[databaseName]
	if ok {
		delete(m.entries, databaseName)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	evictions.Inc()
	select {
	case <-e.ready:
	case <-ctx.Done():
		// Owner still dialing; the slot is already gone from the map,
		// so at worst its client leaks until process shutdown.
		m.logger.Printf("Evicted %s while establishment was in flight", databaseName)
		return true
	}

	if e.handle != nil {
		dctx, cancel := context.WithTimeout(context.Background(), defaultDisconnectTimeout)
		defer cancel()
		if err := e.handle.disconnect(dctx); err != nil {
			m.logger.Printf("Disconnect of %s failed: %v", databaseName, err)
		}
	}
	m.logger.Printf("Evicted %s", databaseName)
	return true
}

// Shutdown disconnects every ready handle and empties the cache.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	var firstErr error
	for databaseName, e := range entries {
		select {
		case <-e.ready:
		case <-ctx.Done():
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			continue
		}
		if e.handle == nil {
			continue
		}
		if err := e.handle.disconnect(ctx); err != nil {
			m.logger.Printf("Disconnect of %s failed: %v", databaseName, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.logger.Printf("Shut down connection cache (%d entries)", len(entries))
	return firstErr
}

// Count returns the number of cached entries, in-flight ones included.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Databases returns the cached database names, sorted. Diagnostic surface
// for the health endpoint.
func (m *Manager) Databases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
