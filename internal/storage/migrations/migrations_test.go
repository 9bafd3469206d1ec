package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (x String) ENGINE = Memory;

-- second
CREATE TABLE b (y String DEFAULT 'it''s') ENGINE = Memory;
`
	stmts, err := splitStatements(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String) ENGINE = Memory", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b")
}

func TestSplitStatements_RejectsSemicolonInLiteral(t *testing.T) {
	_, err := splitStatements("SELECT 'a;b';")
	assert.ErrorIs(t, err, ErrSemicolonInLiteral)
}

func TestEmbeddedFiles(t *testing.T) {
	pg, err := loadFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].SQL, "CREATE TABLE IF NOT EXISTS clients")

	ch, err := loadFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)

	stmts, err := splitStatements(ch[0].SQL)
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/churn")
	require.NoError(t, err)
	assert.Equal(t, "churn", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
