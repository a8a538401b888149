package systemlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karinderya/go-storefront/internal/binstore/binstoretest"
)

func TestAppendIsNewestLast(t *testing.T) {
	srv, client := binstoretest.NewClient()
	defer srv.Close()

	r := NewRecorder(client)
	r.Append(context.Background(), "first", "one", "system")
	r.Append(context.Background(), "second", "two", "admin")

	entries, err := r.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Action)
	assert.Equal(t, "second", entries[1].Action)
	assert.Equal(t, "admin", entries[1].PerformedBy)
	assert.NotEmpty(t, entries[1].EntryID)
	assert.False(t, entries[1].PerformedAt.IsZero())
}

func TestAppendFailureDoesNotPanicOrPropagate(t *testing.T) {
	srv, client := binstoretest.NewClient()
	defer srv.Close()

	srv.FailPut[binstoretest.LogBin] = true
	r := NewRecorder(client)

	// append is best-effort; a failed write is swallowed
	r.Append(context.Background(), "noop", "write fails", "system")

	srv.FailPut[binstoretest.LogBin] = false
	entries, err := r.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
