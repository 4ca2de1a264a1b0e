// Package migration holds the SQL schema of the run store.
package migration

import _ "embed"

// Create creates every table of a fresh database. It is safe to run again.
//
//go:embed create-tables.sql
var Create string
