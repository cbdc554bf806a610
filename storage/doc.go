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


// Package storage provides the storage abstraction layer for docsift.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion and query flows. Two backends implement them:
//
//   - storage/badger: embedded BadgerDB, the default
//   - storage/sqlite: a single SQLite file via modernc.org/sqlite
//
// # Architecture
//
//   - SegmentRepository: append-only segment store with role and keyword scans
//   - RoleRepository: CRUD for user to role assignments
//   - ScanFilter: the role/keyword predicate shared by both backends
//
// # Idempotency
//
// SaveAll is all-or-nothing per (document, role) pair. A pair that is already
// stored is rejected with ErrDuplicateKey, which lets the ingestion flow treat
// duplicate deliveries of an upload event as a no-op.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
