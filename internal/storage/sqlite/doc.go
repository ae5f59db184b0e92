// Package sqlite persists meetings in a SQLite database using the pure-Go
// modernc.org/sqlite driver. The schema is embedded and applied with
// golang-migrate on startup.
package sqlite
