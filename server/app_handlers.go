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

package server

import (
	"net/http"

	"vendora/platform/models"
)

// handleTenantInfo is the data-plane entry point: it proves the resolver
// chain end to end by reporting which tenant and catalog the request landed
// on. The business endpoints (invoices, products, ...) hang off the same
// context accessors.
func handleTenantInfo(w http.ResponseWriter, r *http.Request) {
	t := TenantFromContext(r.Context())
	ms := ModelsFromContext(r.Context())
	if t == nil || ms == nil {
		writeError(w, r, http.StatusNotFound, CodeTenantNotFound, "no tenant bound to this request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenant": t,
		"database": map[string]interface{}{
			"name":        ms.DatabaseName(),
			"collections": models.Names(),
		},
	})
}
