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
Package server is the HTTP surface of the platform.

Three route trees share one router: health and metrics on the bare paths,
the JWT-gated tenant provisioning API under /admin (saas mode only), and the
tenant data plane under /api behind the Resolver middleware. The resolver
maps the request's subdomain to a registry record, enforces the tenant
lifecycle (404 unknown, 403 disabled, 503 unreachable), and binds the
tenant's connection and model set into the request context.

Run owns the process lifecycle: eager central registry connection, lazily
filled tenant connection cache, optional Redis eviction bus, and ordered
graceful shutdown.
*/
package server
