// Package service implements the use cases behind the HTTP API.
//
// AuthService registers users, issues token pairs, rotates refresh tokens and
// enforces the session idle timeout. TaskService scopes every task operation
// to its owner, with unscoped reads reserved for admins. UserService lists
// accounts for the admin views.
//
// Services receive their stores and collaborators through constructors and
// open transactions with store.RunInTransaction when a use case writes more
// than one row.
package service
