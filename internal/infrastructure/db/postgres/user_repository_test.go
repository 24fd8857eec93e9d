package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

func TestMapUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "username constraint",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"},
			want: domain.ErrDuplicateUsername,
		},
		{
			name: "email constraint",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			want: domain.ErrDuplicateEmail,
		},
		{
			name: "wrapped violation",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}),
			want: domain.ErrDuplicateEmail,
		},
		{
			name: "unique violation on unknown constraint",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"},
			want: nil,
		},
		{
			name: "non-unique pg error",
			err:  &pgconn.PgError{Code: pgerrcode.NotNullViolation, ConstraintName: "users_username_key"},
			want: nil,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapUniqueViolation(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("mapUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// The constraint names mapUniqueViolation switches on must stay in sync
// with the names the users migration declares.
func TestMigrationDeclaresMappedConstraints(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/001_users.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, name := range []string{"users_username_key", "users_email_key"} {
		if !strings.Contains(string(sql), name) {
			t.Fatalf("migration does not declare constraint %q", name)
		}
	}
}
