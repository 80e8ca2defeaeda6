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

// Package main is the entry point for the Vendora platform server.
//
// The server routes every request to its tenant's database by subdomain,
// caches one connection per tenant, and exposes the tenant provisioning API
// in saas deployments.
//
// Usage:
//
//	./server [-config config.yaml]
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	MONGODB_URI - Mongo connection string (database selected per tenant)
//	VENDORA_DEPLOYMENT_MODE - saas or selfhosted (default: saas)
//	VENDORA_ROOT_DOMAIN - apex domain for tenant subdomains (saas mode)
//	REDIS_URL - optional, enables cluster-wide cache eviction
//	JWT_SECRET - signs platform-admin tokens for the provisioning API
package main

import (
	"flag"
	"fmt"
	"os"

	"vendora/platform/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if err := server.Run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
