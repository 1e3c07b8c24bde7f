package db_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("failed to find item: %w", context.DeadlineExceeded),
			wantCode:   apperrors.CodeUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "wrapped unavailable",
			err:        fmt.Errorf("failed to create loan: %w", fmt.Errorf("%w: no reachable servers", db.ErrUnavailable)),
			wantCode:   apperrors.CodeUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "caller cancelled",
			err:        fmt.Errorf("failed to read loan: %w", context.Canceled),
			wantCode:   apperrors.CodeTimeout,
			wantStatus: 499,
		},
		{
			name:       "anything else",
			err:        errors.New("disk full"),
			wantCode:   apperrors.CodeInternal,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperrors.AsAppError(db.AsServiceError(tt.err, "Failed to check out item"))
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestAsServiceError_UnavailableNamesStore(t *testing.T) {
	got := apperrors.AsAppError(db.AsServiceError(db.ErrUnavailable, "Failed to read loan"))

	assert.Equal(t, apperrors.CodeUnavailable, got.Code)
	assert.Equal(t, db.StoreName, got.Details["service"])
}

func TestAsServiceError_AppErrorPassesThrough(t *testing.T) {
	conflict := apperrors.ConflictWithReason(apperrors.ReasonUnavailable, "No copies of the item are available")

	got := db.AsServiceError(conflict, "Failed to check out item")

	require.Same(t, conflict, got)
	assert.NoError(t, db.AsServiceError(nil, "unused"))
}
