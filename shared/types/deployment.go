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

// Package types provides shared type definitions used across Vendora
// components. This file defines deployment mode configuration for
// multi-tenant SaaS vs single-tenant self-hosted installs.
package types

// DeploymentMode represents the deployment type
type DeploymentMode string

const (
	// DeploymentModeSaaS is for multi-tenant SaaS deployments: subdomain
	// routing, per-tenant databases, and the tenant provisioning API.
	DeploymentModeSaaS DeploymentMode = "saas"
	// DeploymentModeSelfHosted is for single-tenant self-hosted installs
	// that run one organization on one database.
	DeploymentModeSelfHosted DeploymentMode = "selfhosted"
)

// String returns the string representation of the DeploymentMode
func (m DeploymentMode) String() string {
	return string(m)
}

// IsValid returns true if the DeploymentMode is a valid known value
func (m DeploymentMode) IsValid() bool {
	switch m {
	case DeploymentModeSaaS, DeploymentModeSelfHosted:
		return true
	default:
		return false
	}
}

// DeploymentConfig contains deployment-specific settings that control which
// surfaces the server exposes.
//
// SaaS deployments resolve tenants by subdomain and expose the provisioning
// API. Self-hosted deployments pin every request to a single database and
// hide tenant administration entirely.
type DeploymentConfig struct {
	// Mode is the deployment type (saas or selfhosted)
	Mode DeploymentMode `json:"mode"`

	// SubdomainRouting enables hostname-based tenant resolution
	SubdomainRouting bool `json:"subdomain_routing"`

	// ExposeProvisioning enables the /admin/tenants surface
	ExposeProvisioning bool `json:"expose_provisioning"`
}

// DefaultSaaSConfig returns the default configuration for SaaS deployments.
func DefaultSaaSConfig() DeploymentConfig {
	return DeploymentConfig{
		Mode:               DeploymentModeSaaS,
		SubdomainRouting:   true,
		ExposeProvisioning: true,
	}
}

// DefaultSelfHostedConfig returns the default configuration for self-hosted
// installs.
func DefaultSelfHostedConfig() DeploymentConfig {
	return DeploymentConfig{
		Mode:               DeploymentModeSelfHosted,
		SubdomainRouting:   false,
		ExposeProvisioning: false,
	}
}

// IsSaaS returns true if this is a SaaS deployment
func (c DeploymentConfig) IsSaaS() bool {
	return c.Mode == DeploymentModeSaaS
}

// IsSelfHosted returns true if this is a self-hosted deployment
func (c DeploymentConfig) IsSelfHosted() bool {
	return c.Mode == DeploymentModeSelfHosted
}
