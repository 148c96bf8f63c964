package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_fill_jobs_active"}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", uniqueErr, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", uniqueErr), true},
		{"other pg error", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("connection refused"), false},
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
