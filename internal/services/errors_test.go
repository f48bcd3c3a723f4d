package services

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"policy denial", fmt.Errorf("wrapped: %w", policy.ErrDenied), 403},
		{"missing row", sql.ErrNoRows, 403},
		{"unique violation", &pgconn.PgError{Code: "23505"}, 409},
		{"foreign key violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), 409},
		{"check violation", &pgconn.PgError{Code: "23514"}, 400},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, 400},
		{"too large", storage.ErrTooLarge, 413},
		{"bad mime", storage.ErrMimeNotAllowed, 415},
		{"quota", storage.ErrQuota, 507},
		{"foreign prefix", storage.ErrForeignPrefix, 403},
		{"service error", ErrConflict("taken"), 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireStatus(t, Classify(tt.err), tt.status)
		})
	}
}

func TestClassifyPassesThroughUnknown(t *testing.T) {
	err := errors.New("connection reset")
	assert.Equal(t, err, Classify(err))
	assert.Nil(t, Classify(nil))
}

func TestValidateReportsFields(t *testing.T) {
	err := Validate(NoteInput{Content: "", Category: "gossip"})
	se := requireStatus(t, err, 400)
	assert.Equal(t, "is required", se.Fields["content"])
	assert.Contains(t, se.Fields["category"], "must be one of")
}

func TestCleanSearchTerm(t *testing.T) {
	assert.Equal(t, "red bike", CleanSearchTerm("  red \t  bike "))
	assert.Equal(t, "", CleanSearchTerm("   "))
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% off_now"))
}
