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

package tenant

import (
	"crypto/rand"
	"fmt"
)

// Setup passkeys are deliberately short: an operator reads one over the phone
// or email and the new tenant's admin types it in during first-run setup.
// Two groups of four characters from an unambiguous alphabet gives ~41 bits,
// which for a one-time, low-volume onboarding code trades brute-force margin
// for typability. Lengthening it would be a UX regression for the humans who
// enter it, so don't change the format casually.
const (
	passkeyAlphabet  = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	passkeyGroupLen  = 4
	passkeyGroups    = 2
	passkeySeparator = '-'
)

// GeneratePasskey returns a fresh setup passkey, e.g. "K4TW-9HRC".
func GeneratePasskey() (string, error) {
	total := passkeyGroups * passkeyGroupLen
	raw := make([]byte, total)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate passkey: %w", err)
	}

	out := make([]byte, 0, total+passkeyGroups-1)
	for i, b := range raw {
		if i > 0 && i%passkeyGroupLen == 0 {
			out = append(out, passkeySeparator)
		}
		out = append(out, passkeyAlphabet[int(b)%len(passkeyAlphabet)])
	}
	return string(out), nil
}
