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

package tenantdb

import "errors"

// ErrSchemaConflict means a collection schema was bound twice on the same
// handle. That is a programmer error, not an environmental failure: the
// registrar guard exists precisely so this never happens, so when it does,
// fail loudly.
var ErrSchemaConflict = errors.New("schema already registered on this connection")

// ErrUnknownCollection means a handler asked a ModelSet for a collection
// name that is not part of the registered catalog.
var ErrUnknownCollection = errors.New("unknown collection")

// ConnectError reports a failed connection establishment for a tenant
// database. It is transient from the cache's point of view: the entry is
// evicted and the next request retries from scratch.
type ConnectError struct {
	DatabaseName string
	Cause        error
}

func (e *ConnectError) Error() string {
	if e.Cause != nil {
		return "tenantdb." + e.DatabaseName + ": connection establishment failed (cause: " + e.Cause.Error() + ")"
	}
	return "tenantdb." + e.DatabaseName + ": connection establishment failed"
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// NewConnectError creates a ConnectError for the given database.
func NewConnectError(databaseName string, cause error) *ConnectError {
	return &ConnectError{DatabaseName: databaseName, Cause: cause}
}

// IsConnectError reports whether err is (or wraps) a ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
