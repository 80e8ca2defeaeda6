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

/*
Package tenantdb manages the per-tenant database connections.

Every tenant owns a logical database; connections to them are established
lazily on first request and cached for the life of the process. The Manager
single-flights establishment so a burst of requests for a cold tenant
produces exactly one dial, and it evicts failed attempts before releasing
waiters so a transient outage never poisons the cache.

Establishment is dial (NewDialer: URI template + pool bounds + ping) followed
by schema registration (Registrar: the static collection catalog bound
exactly once per handle, indexes synced). Request handlers consume the result
through ModelSet, which only vends collections the catalog declares.

EvictionBus propagates tenant deletions across replicas over Redis pub/sub.
*/
package tenantdb
