// Package database wraps a database/sql pool so statement execution can be
// intercepted under database.Connection::Query and database.Connection::Exec.
//
// Hooks receive the raw statement and its bound parameters as
// [query string, params []any].
package database
