// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. Driver errors are translated into
// the store package's sentinel errors by MapError.
package postgres
