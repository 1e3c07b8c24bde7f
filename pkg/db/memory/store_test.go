package memory

import (
	"context"
	"errors"
	"testing"

	"circulation/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ExecuteTransaction_RollsBack_WhenFnFails(t *testing.T) {
	// arrange
	store := NewStore()
	store.Seed(func(tb *Tables) {
		tb.Items["i-1"] = model.Item{ID: "i-1", TotalCopies: 1, AvailableCopies: 1}
	})
	boom := errors.New("boom")

	// act
	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		return store.Update(ctx, func(tb *Tables) error {
			item := tb.Items["i-1"]
			item.AvailableCopies = 0
			tb.Items["i-1"] = item
			tb.Loans["l-1"] = model.Loan{ID: "l-1", ItemID: "i-1"}
			return boom
		})
	})

	// assert
	require.ErrorIs(t, err, boom)
	snapshot := store.Snapshot()
	assert.Equal(t, 1, snapshot.Items["i-1"].AvailableCopies)
	assert.Empty(t, snapshot.Loans)
}

func Test_ExecuteTransaction_Commits_WhenFnSucceeds(t *testing.T) {
	store := NewStore()

	err := store.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		return store.Update(ctx, func(tb *Tables) error {
			tb.Holds["h-1"] = model.Hold{ID: "h-1", Status: model.HoldPending}
			return nil
		})
	})

	require.NoError(t, err)
	assert.Contains(t, store.Snapshot().Holds, "h-1")
}

func Test_ExecuteTransaction_RollsBack_WhenContextCancelledBeforeCommit(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := store.ExecuteTransaction(ctx, func(ctx context.Context) error {
		_ = store.Update(ctx, func(tb *Tables) error {
			tb.Fines["f-1"] = model.Fine{ID: "f-1"}
			return nil
		})
		cancel()
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Snapshot().Fines)
}

func Test_ExecuteTransaction_SkipsFn_WhenCancelledWhileWaiting(t *testing.T) {
	store := NewStore()
	holding := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- store.ExecuteTransaction(context.Background(), func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	secondDone := make(chan error, 1)
	called := false
	go func() {
		secondDone <- store.ExecuteTransaction(ctx, func(context.Context) error {
			called = true
			return nil
		})
	}()

	cancel()
	close(release)

	require.NoError(t, <-firstDone)
	require.ErrorIs(t, <-secondDone, context.Canceled)
	assert.False(t, called)
}

func Test_NestedTransaction_JoinsOuterUnit(t *testing.T) {
	store := NewStore()
	tx := NewTransactionManager(store)
	boom := errors.New("outer failure")

	err := tx.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		innerErr := tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
			return store.Update(ctx, func(tb *Tables) error {
				tb.Patrons["p-1"] = model.Patron{ID: "p-1"}
				return nil
			})
		})
		require.NoError(t, innerErr)
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.Snapshot().Patrons)
}
