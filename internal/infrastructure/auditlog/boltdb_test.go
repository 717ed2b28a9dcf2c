package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/authgo/backend/domain"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "audit.db"), "auth_events")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_AppendAndBatch(t *testing.T) {
	j := openTestJournal(t)

	first := Entry{Event: domain.AuthEvent{
		Action:    domain.ActionLogin,
		Outcome:   domain.OutcomeFailure,
		Username:  "alice",
		CreatedAt: time.Now(),
	}}
	require.NoError(t, j.Append(first))
	require.NoError(t, j.Append(Entry{Event: domain.AuthEvent{
		Action:  domain.ActionSignup,
		Outcome: domain.OutcomeSuccess,
	}}))

	size, err := j.Size()
	require.NoError(t, err)
	require.Equal(t, 2, size)

	entries, err := j.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Entries come back in queue order.
	require.Equal(t, domain.ActionLogin, entries[0].Event.Action)
	require.NotEmpty(t, entries[0].Event.ID)

	require.NoError(t, j.Remove(entries[0]))
	size, err = j.Size()
	require.NoError(t, err)
	require.Equal(t, 1, size)
}

func TestJournal_Requeue(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append(Entry{Event: domain.AuthEvent{Action: domain.ActionLogin, Outcome: domain.OutcomeSuccess}}))

	entries, err := j.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	entry.Retries++
	require.NoError(t, j.Remove(entry))
	require.NoError(t, j.Requeue(entry))

	entries, err = j.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Retries)
}

func TestJournal_BatchLimit(t *testing.T) {
	j := openTestJournal(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(Entry{Event: domain.AuthEvent{Action: domain.ActionLogin, Outcome: domain.OutcomeSuccess}}))
	}

	entries, err := j.GetBatch(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}
