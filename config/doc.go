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
Package config loads the Vendora server configuration.

Configuration is layered: a YAML file (with ${ENV} expansion) provides the
base, VENDORA_*-style environment variables override it, and hard defaults
fill the rest. Validation runs once at load time so the server fails fast on
a broken deployment rather than at the first tenant request.

Example config file:

	port: "8080"
	deployment_mode: saas
	root_domain: vendora.app
	reserved_subdomains: [app, admin, www]
	mongo:
	  uri: ${MONGODB_URI}
	  central_database: vendora_central
	  connect_timeout_ms: 10000
	redis_url: ${REDIS_URL:-}
	jwt_secret: ${JWT_SECRET}
*/
package config
