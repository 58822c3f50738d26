package sqlops

import (
	"fmt"
	"strings"
)

// DefaultSequenceStart is the first value of sequences created by CreateSequence.
const DefaultSequenceStart int64 = 1

// SetDefault sets a column default on upgrade and drops it on rollback.
// value is inserted verbatim, so string defaults must be quoted by the caller
// (see Literal), e.g. "'pending'".
func SetDefault(table, column, value string) Operation {
	return Operation{
		Forward: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, column, value),
		Reverse: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, column),
	}
}

// DefaultEmpty returns one SetDefault operation per column with an empty string default.
func DefaultEmpty(table string, columns []string) []Operation {
	ops := make([]Operation, 0, len(columns))
	for _, column := range columns {
		ops = append(ops, SetDefault(table, column, "''"))
	}
	return ops
}

// CreateSequence creates a sequence starting at DefaultSequenceStart.
func CreateSequence(name string) Operation {
	return CreateSequenceFrom(name, DefaultSequenceStart)
}

// CreateSequenceFrom creates a sequence starting at start.
func CreateSequenceFrom(name string, start int64) Operation {
	return Operation{
		Forward: fmt.Sprintf("CREATE SEQUENCE %s START WITH %d", name, start),
		Reverse: fmt.Sprintf("DROP SEQUENCE %s", name),
	}
}

// AddIndex creates an index over fields in the given order.
// Field names are joined as-is.
func AddIndex(index, table string, fields []string) Operation {
	return addIndex("CREATE INDEX", index, table, fields)
}

// AddUniqueIndex is AddIndex for a unique index.
func AddUniqueIndex(index, table string, fields []string) Operation {
	return addIndex("CREATE UNIQUE INDEX", index, table, fields)
}

func addIndex(stmt, index, table string, fields []string) Operation {
	return Operation{
		Forward: fmt.Sprintf("%s %s ON %s (%s)", stmt, index, table, strings.Join(fields, ",")),
		Reverse: fmt.Sprintf("DROP INDEX %s", index),
	}
}

// ZeroOneCheck adds a named CHECK constraint limiting field to 0 or 1.
func ZeroOneCheck(table, field, constraint string) Operation {
	return Operation{
		Forward: fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK ((%s = 0) OR (%s = 1));", table, constraint, field, field),
		Reverse: fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", table, constraint),
	}
}
