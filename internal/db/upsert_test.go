package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvConfig() UpsertConfig {
	return UpsertConfig{
		Table:        "cache_entries",
		Columns:      []string{"key", "value", "saved_at"},
		ConflictKeys: []string{"key"},
	}
}

func TestUpsertSQL(t *testing.T) {
	sql, err := UpsertSQL(kvConfig())
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "cache_entries" ("key", "value", "saved_at") VALUES ($1, $2, $3) ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value", "saved_at" = EXCLUDED."saved_at"`,
		sql)
}

func TestUpsertSQL_DoNothing(t *testing.T) {
	sql, err := UpsertSQL(UpsertConfig{Table: "t", Columns: []string{"id"}, ConflictKeys: []string{"id"}})
	require.NoError(t, err)
	assert.Contains(t, sql, "ON CONFLICT (\"id\") DO NOTHING")
}

func TestUpsertSQL_Validation(t *testing.T) {
	_, err := UpsertSQL(UpsertConfig{Table: "t", ConflictKeys: []string{"id"}})
	assert.ErrorContains(t, err, "no columns specified")

	_, err = UpsertSQL(UpsertConfig{Table: "t", Columns: []string{"id"}})
	assert.ErrorContains(t, err, "no conflict keys specified")
}

func TestUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO").
		WithArgs("k", []byte("v"), int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, Upsert(context.Background(), mock, kvConfig(), "k", []byte("v"), int64(1)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assert.ErrorContains(t, Upsert(context.Background(), mock, kvConfig(), "k"), "1 values for 3 columns")

	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("conn closed"))
	err = Upsert(context.Background(), mock, kvConfig(), "k", []byte("v"), int64(1))
	assert.ErrorContains(t, err, "db: upsert into cache_entries")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"vakit.cache_entries", `"vakit"."cache_entries"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}
