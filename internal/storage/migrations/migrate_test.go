package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_holders_transfers.sql"}, pg)

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)

	for _, f := range ch {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+f)
		require.NoError(t, err)
		stmts, err := splitStatements(string(data))
		require.NoError(t, err, f)
		assert.NotEmpty(t, stmts)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts, err := splitStatements(`
-- comment; with semicolon
CREATE TABLE a (x String);

CREATE VIEW v AS SELECT 'it''s' AS s FROM a;
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE a (x String)",
		"CREATE VIEW v AS SELECT 'it''s' AS s FROM a",
	}, stmts)

	_, err = splitStatements(`SELECT 'a;b'`)
	assert.Error(t, err)
}

func TestVersionAndDSN(t *testing.T) {
	assert.Equal(t, "001_holders_transfers", version("001_holders_transfers.sql"))

	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/holderflow")
	require.NoError(t, err)
	assert.Equal(t, "holderflow", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
