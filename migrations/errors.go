package migrations

import "errors"

var (
	ErrMigrationFailed    = errors.New("migration failed")
	ErrDuplicateMigration = errors.New("duplicate migration")
	ErrMigrationNotFound  = errors.New("migration not found")
	ErrTableNotFound      = errors.New("migrations table not found")
)
