// Copyright 2025 Poiesic Systems
//
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


package storage

import "errors"

var (
	// ErrNotFound is returned when a role assignment or document is missing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a (document, role) pair or a user
	// assignment is already stored. Ingestion treats it as a skip.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTransactionFailed wraps a store write that was rolled back.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed is returned by operations on a closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidFilter is returned for a scan filter that cannot be evaluated.
	ErrInvalidFilter = errors.New("invalid scan filter")

	// ErrSerializationFailed wraps a record that could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
