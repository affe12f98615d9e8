package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate email insert", &pgconn.PgError{Code: "23505", ConstraintName: "profiles_email_key"}, true},
		{"wrapped duplicate", fmt.Errorf("create profile: %w", &pgconn.PgError{Code: "23505"}), true},
		{"other pg error", &pgconn.PgError{Code: "23503"}, false},
		{"non-pg error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
