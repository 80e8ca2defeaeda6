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
Package logger provides structured JSON logging with per-tenant attribution
for Vendora components.

# Overview

The logger outputs single-line JSON to stdout, making logs easily consumable
by CloudWatch, ELK, or any other log aggregation system.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (server, tenantdb, etc.)
  - Instance ID and container name (for distributed tracing)
  - Tenant subdomain (for multi-tenant isolation)
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("server")

Log messages with tenant and request context:

	log.Info("acme", "req-456", "Resolved tenant", map[string]interface{}{
	    "database": "tenant_acme",
	})

Log errors with status codes:

	log.ErrorWithCode("acme", "req-456", "Connection failed", 503, err, nil)

# Environment Variables

The logger reads these environment variables:

  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
