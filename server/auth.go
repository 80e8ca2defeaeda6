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
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RolePlatformAdmin is the role claim required on the provisioning surface.
const RolePlatformAdmin = "platform_admin"

// AdminClaims are the JWT claims carried by platform-admin tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// adminAuthMiddleware gates a route tree behind a Bearer token signed with
// the shared secret and carrying the platform_admin role. Tenant-facing
// traffic never passes through here.
func adminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
					}
					return []byte(secret), nil
				})
			if err != nil || !token.Valid {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}
			if claims.Role != RolePlatformAdmin {
				writeError(w, r, http.StatusForbidden, CodeUnauthorized, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
