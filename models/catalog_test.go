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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, spec := range Catalog() {
		require.NotEmpty(t, spec.Name)
		assert.False(t, seen[spec.Name], "duplicate collection name %q", spec.Name)
		seen[spec.Name] = true
	}
}

func TestCatalogIsCopied(t *testing.T) {
	first := Catalog()
	first[0].Name = "mutated"

	second := Catalog()
	assert.Equal(t, CollectionCustomers, second[0].Name)
}

func TestNamesMatchCatalog(t *testing.T) {
	specs := Catalog()
	names := Names()
	require.Len(t, names, len(specs))
	for i, spec := range specs {
		assert.Equal(t, spec.Name, names[i])
	}
}
