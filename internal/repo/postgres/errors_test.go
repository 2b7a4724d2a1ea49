package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolationMapping(t *testing.T) {
	emailConflict := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	otherConflict := &pgconn.PgError{Code: "23505", ConstraintName: "sleep_records_pkey"}
	checkFailed := &pgconn.PgError{Code: "23514", ConstraintName: "users_email_key"}

	tests := []struct {
		name      string
		err       error
		unique    bool
		emailTake bool
	}{
		{"email_conflict_wrapped", emailConflict, true, true},
		{"other_unique", otherConflict, true, false},
		{"check_violation", checkFailed, false, false},
		{"plain_error", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.unique {
				t.Fatalf("IsUniqueViolation = %v, want %v", got, tt.unique)
			}
			if got := isConstraintViolation(tt.err, usersEmailKey); got != tt.emailTake {
				t.Fatalf("isConstraintViolation = %v, want %v", got, tt.emailTake)
			}
		})
	}
}
