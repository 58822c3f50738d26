package sqlops

import (
	"fmt"
	"io/fs"
	"regexp"
)

var functionNamePattern = regexp.MustCompile(`(?i)create\s+(?:or\s+replace\s+)?function\s+([\p{L}\p{N}_.]+)\s*\(`)

// LoadSQL reads the SQL file at path from fsys, usually an embed.FS.
func LoadSQL(fsys fs.FS, path string) (string, error) {
	if fsys == nil {
		return "", fmt.Errorf("load sql %s: filesystem is nil", path)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("load sql %s: %w", path, err)
	}
	return string(data), nil
}

// FunctionName returns the name declared by the first
// CREATE [OR REPLACE] FUNCTION clause in sql.
func FunctionName(sql string) (string, error) {
	match := functionNamePattern.FindStringSubmatch(sql)
	if match == nil {
		return "", ErrFunctionNameNotFound
	}
	return match[1], nil
}

// CreateFunctionFromFile loads a function definition and pairs it with a
// DROP FUNCTION for rollback.
func CreateFunctionFromFile(fsys fs.FS, path string) (Operation, error) {
	createSQL, err := LoadSQL(fsys, path)
	if err != nil {
		return Operation{}, err
	}

	name, err := FunctionName(createSQL)
	if err != nil {
		return Operation{}, fmt.Errorf("%w: %s", err, path)
	}

	return Operation{
		Forward: createSQL,
		Reverse: fmt.Sprintf("DROP FUNCTION %s", name),
	}, nil
}

// UpdateFunctionFromFile applies the definition at newPath and restores the
// one at oldPath on rollback. Neither file is inspected.
func UpdateFunctionFromFile(fsys fs.FS, newPath, oldPath string) (Operation, error) {
	newSQL, err := LoadSQL(fsys, newPath)
	if err != nil {
		return Operation{}, err
	}
	oldSQL, err := LoadSQL(fsys, oldPath)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Forward: newSQL, Reverse: oldSQL}, nil
}
