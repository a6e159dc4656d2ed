package storage

import "embed"

// Migrations holds the goose SQL migrations; apply them with pg.Migrate
// using MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"
