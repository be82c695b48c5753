// Package migrations applies the embedded PostgreSQL and ClickHouse schema.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Embedded schema, one directory per engine. Files apply in name order.
var (
	//go:embed postgres/*.sql
	PostgresFS embed.FS

	//go:embed clickhouse/*.sql
	ClickhouseFS embed.FS
)

// sqlFiles returns the .sql files in dir of fsys in lexical (version) order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// version strips the extension: "001_holders_transfers.sql" -> "001_holders_transfers".
func version(file string) string {
	return strings.TrimSuffix(file, ".sql")
}
