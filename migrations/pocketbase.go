package migrations

import (
	"context"
	"errors"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"github.com/eqr/sqlops"
)

// RegisterPocketBase registers m into a PocketBase migrations list, usually
// core.AppMigrations, using the migration name as the PocketBase file name.
// PocketBase then applies and reverts it inside its own transaction and
// tracks it in its _migrations table.
func RegisterPocketBase(list *core.MigrationsList, m Migration) error {
	if list == nil {
		return errors.New("migrations list is nil")
	}
	if m == nil {
		return errors.New("migration is nil")
	}

	name := strings.TrimSpace(m.Name())
	if name == "" {
		return errors.New("migration name is required")
	}

	list.Register(
		func(txApp core.App) error {
			return m.Up(context.Background(), sqlops.DBX(txApp.DB()))
		},
		func(txApp core.App) error {
			return m.Down(context.Background(), sqlops.DBX(txApp.DB()))
		},
		name,
	)
	return nil
}
