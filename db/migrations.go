// Package db embeds the SQL migrations shared by the store-backed services.
package db

import "embed"

// Migrations holds migrations/*.sql. Only *.up.sql files are applied.
//
//go:embed migrations/*.sql
var Migrations embed.FS
