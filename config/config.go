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

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vendora/platform/shared/types"
)

// Defaults applied when neither the config file nor the environment sets a
// value.
const (
	DefaultPort           = "8080"
	DefaultConnectTimeout = 10 * time.Second
	DefaultMaxPoolSize    = 100
	DefaultMinPoolSize    = 5
)

// DefaultReservedSubdomains are the privileged labels that bypass tenant
// lookup and bind to the central registry connection instead.
var DefaultReservedSubdomains = []string{"app", "admin", "www"}

// MongoConfig holds the datastore settings shared by the central registry
// connection and the per-tenant dialer.
type MongoConfig struct {
	// URI is the connection string to the shared Mongo server or cluster.
	// It must not carry a database path; the logical database is selected
	// per tenant at dial time.
	URI string `yaml:"uri"`

	// CentralDatabase is the name of the always-connected registry database.
	CentralDatabase string `yaml:"central_database"`

	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
	MaxPoolSize      int `yaml:"max_pool_size"`
	MinPoolSize      int `yaml:"min_pool_size"`
}

// ConnectTimeout returns the configured connect timeout as a duration.
func (m MongoConfig) ConnectTimeout() time.Duration {
	if m.ConnectTimeoutMs <= 0 {
		return DefaultConnectTimeout
	}
	return time.Duration(m.ConnectTimeoutMs) * time.Millisecond
}

// Config is the full application configuration.
type Config struct {
	Port string `yaml:"port"`

	// DeploymentMode is "saas" or "selfhosted" (see shared/types).
	DeploymentMode string `yaml:"deployment_mode"`

	// RootDomain is the apex under which tenant subdomains live,
	// e.g. "vendora.app" for acme.vendora.app.
	RootDomain string `yaml:"root_domain"`

	// ReservedSubdomains bypass tenant lookup and bind to the central
	// registry connection.
	ReservedSubdomains []string `yaml:"reserved_subdomains"`

	// DefaultTenant is the subdomain every request resolves to when
	// subdomain routing is off (selfhosted single-tenant installs).
	DefaultTenant string `yaml:"default_tenant"`

	Mongo MongoConfig `yaml:"mongo"`

	// RedisURL enables cluster-wide connection-cache eviction. Optional;
	// empty means local-only eviction.
	RedisURL string `yaml:"redis_url"`

	// JWTSecret signs and verifies platform-admin tokens for the
	// provisioning surface.
	JWTSecret string `yaml:"jwt_secret"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Deployment resolves the DeploymentConfig for the configured mode.
func (c *Config) Deployment() types.DeploymentConfig {
	if types.DeploymentMode(c.DeploymentMode) == types.DeploymentModeSelfHosted {
		return types.DefaultSelfHostedConfig()
	}
	return types.DefaultSaaSConfig()
}

// IsReservedSubdomain reports whether label routes to the central branch.
// The empty label (a request to the bare root domain) is always reserved.
func (c *Config) IsReservedSubdomain(label string) bool {
	if label == "" {
		return true
	}
	label = strings.ToLower(label)
	for _, reserved := range c.ReservedSubdomains {
		if label == reserved {
			return true
		}
	}
	return false
}

// Load reads the YAML config file at path (if path is non-empty), expands
// ${ENV} references in it, applies VENDORA_* environment overrides, fills
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the config file, the way
// container deployments expect.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("VENDORA_DEPLOYMENT_MODE"); v != "" {
		cfg.DeploymentMode = v
	}
	if v := os.Getenv("VENDORA_ROOT_DOMAIN"); v != "" {
		cfg.RootDomain = v
	}
	if v := os.Getenv("VENDORA_RESERVED_SUBDOMAINS"); v != "" {
		cfg.ReservedSubdomains = splitAndTrim(v)
	}
	if v := os.Getenv("VENDORA_DEFAULT_TENANT"); v != "" {
		cfg.DefaultTenant = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("VENDORA_CENTRAL_DB"); v != "" {
		cfg.Mongo.CentralDatabase = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("VENDORA_CORS_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.DeploymentMode == "" {
		cfg.DeploymentMode = types.DeploymentModeSaaS.String()
	}
	if len(cfg.ReservedSubdomains) == 0 {
		cfg.ReservedSubdomains = append([]string(nil), DefaultReservedSubdomains...)
	}
	if cfg.Mongo.CentralDatabase == "" {
		cfg.Mongo.CentralDatabase = "vendora_central"
	}
	if cfg.DefaultTenant == "" {
		cfg.DefaultTenant = "default"
	}
	if cfg.Mongo.MaxPoolSize <= 0 {
		cfg.Mongo.MaxPoolSize = DefaultMaxPoolSize
	}
	if cfg.Mongo.MinPoolSize <= 0 {
		cfg.Mongo.MinPoolSize = DefaultMinPoolSize
	}
}

// Validate checks the invariants the server relies on at startup.
func (c *Config) Validate() error {
	if !types.DeploymentMode(c.DeploymentMode).IsValid() {
		return fmt.Errorf("invalid deployment_mode: %q", c.DeploymentMode)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required (set MONGODB_URI)")
	}

	deployment := c.Deployment()
	if deployment.SubdomainRouting && c.RootDomain == "" {
		return fmt.Errorf("root_domain is required in saas mode")
	}
	if deployment.ExposeProvisioning && c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required when the provisioning API is exposed")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports both ${VAR_NAME} and $VAR_NAME syntax, with ${VAR:-default}
// fallbacks. Undefined variables expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
