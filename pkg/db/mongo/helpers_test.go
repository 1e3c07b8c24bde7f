package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"circulation/pkg/db"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate key",
			err:  mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}},
			want: db.ErrDuplicateKey,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("failed to find loan: %w", context.DeadlineExceeded),
			want: db.ErrUnavailable,
		},
		{
			name: "retryable write",
			err:  mongo.CommandError{Code: 91, Labels: []string{"RetryableWriteError"}},
			want: db.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, TranslateError(tt.err), tt.want)
		})
	}
}

func TestTranslateError_LeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("boom")

	assert.Equal(t, plain, TranslateError(plain))
	assert.NoError(t, TranslateError(nil))
}

func TestWithTimeout_KeepsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want, _ := parent.Deadline()

	ctx, cancelChild := WithTimeout(parent, time.Hour)
	defer cancelChild()

	got, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
