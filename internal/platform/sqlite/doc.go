// Package sqlite implements the store interfaces on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver. It backs local
// development and the end-to-end tests, which run against ":memory:".
package sqlite
