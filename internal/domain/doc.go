// Package domain defines users, tasks and sessions together with their
// validation rules. It has no dependencies on storage or transport.
package domain
