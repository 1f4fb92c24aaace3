package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgDup := &pgconn.PgError{Code: "23505", ConstraintName: "sync_logs_pkey"}
	pqDup := &pq.Error{Code: "23505", Constraint: "outbox_entries_client_txn_id_key"}
	sqliteDup := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	sqlitePK := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil error", nil, "", false},
		{"pgconn unique", pgDup, "", true},
		{"pgconn unique named", pgDup, "sync_logs_pkey", true},
		{"pgconn unique other constraint", pgDup, "sales_pkey", false},
		{"pgconn unique wrapped", fmt.Errorf("inserting marker: %w", pgDup), "sync_logs_pkey", true},
		{"pgconn foreign key", &pgconn.PgError{Code: "23503"}, "", false},
		{"pq unique named", pqDup, "outbox_entries_client_txn_id_key", true},
		{"sqlite unique index", sqliteDup, "", true},
		{"sqlite primary key named", sqlitePK, "sync_logs_pkey", true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, "", false},
		{"stringified postgres", errors.New(`duplicate key value violates unique constraint "sync_logs_pkey"`), "", true},
		{"stringified sqlite", errors.New("UNIQUE constraint failed: sync_logs.client_txn_id"), "", true},
		{"unrelated", errors.New("connection refused"), "sync_logs_pkey", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUniqueViolation(tc.err, tc.constraint))
		})
	}
}
