package migrations

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const defaultTableName = "sqlops_migrations"

// timestampLayout is fixed width so stored values sort lexicographically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record stores bookkeeping data for an applied migration.
type Record struct {
	Name      string    `db:"name"`
	AppliedAt Timestamp `db:"applied_at"`
}

// Timestamp handles applied_at values coming back as text (SQLite) or as
// native timestamps, depending on the driver.
type Timestamp struct {
	time.Time
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.Time.UTC().Format(timestampLayout), nil
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *Timestamp) parse(str string) error {
	str = strings.TrimSpace(str)
	if str == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.000Z07:00", "2006-01-02 15:04:05Z07:00"} {
		if parsed, err := time.Parse(layout, str); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("parse time: %s", str)
}

func (t Timestamp) After(u time.Time) bool  { return t.Time.After(u) }
func (t Timestamp) Before(u time.Time) bool { return t.Time.Before(u) }
func (t Timestamp) IsZero() bool            { return t.Time.IsZero() }
