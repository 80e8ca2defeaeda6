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
Package types provides shared type definitions used across Vendora components.

# Overview

This package contains common types shared between the server, the data plane,
and operational tooling. It provides a single source of truth for shared data
structures.

# Deployment Modes

Vendora supports two deployment modes, configured via DeploymentConfig:

SaaS Mode (multi-tenant):
  - Hostname/subdomain tenant resolution
  - One logical database per tenant
  - Tenant provisioning API exposed

Self-Hosted Mode (single-tenant):
  - One organization, one database
  - No subdomain routing
  - Provisioning surface hidden

# Usage

Determine deployment mode and configure surfaces:

	config := types.DefaultSaaSConfig() // For SaaS deployments

	// Or for self-hosted installs
	config := types.DefaultSelfHostedConfig()

	if config.ExposeProvisioning {
	    // Mount /admin/tenants routes
	}

# Thread Safety

All types in this package are value types and are safe for concurrent use.
*/
package types
