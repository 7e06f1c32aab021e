// Package store declares the persistence contracts for users, tasks and
// sessions, the sentinel errors every implementation returns, and the
// transaction helper services use to group writes. Implementations live in
// internal/platform/postgres and internal/platform/sqlite.
package store
