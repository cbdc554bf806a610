// Package sqlite implements the storage repositories on a single SQLite file
// using the pure-Go modernc.org/sqlite driver.
//
// Schema changes live in migrations/ as numbered NNN_name.up.sql files that
// are embedded at compile time and applied in order on open. Keywords and
// role lists are stored as JSON arrays.
package sqlite
