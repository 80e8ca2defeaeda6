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
Package tenant holds the tenant registry: the durable, queryable source of
truth for routing decisions.

A Tenant maps a subdomain to a logical database name plus lifecycle flags
(active, setup-complete) and a one-time setup passkey. The registry lives in
the always-connected central database; per-tenant databases are dialed lazily
by tenantdb.

Invariants enforced here:

  - subdomain and databaseName are each globally unique (unique indexes)
  - databaseName never changes after creation (connections are cached by it)
  - the setup passkey never appears in non-administrative representations
    (json:"-" on the field, Redacted() at every egress)
*/
package tenant
