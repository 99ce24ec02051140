package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresInputs(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Submit("", "B2B SaaS")
	assert.Error(t, err)

	_, err = m.Submit("acme.com", "")
	assert.Error(t, err)
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	m := NewManager(NewMemoryStore())

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatePending, job.State)

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, "B2B SaaS", got.Description)
	assert.Equal(t, StatePending, got.State)
}

func TestGetUnknownJob(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLifecycleSuccess(t *testing.T) {
	m := NewManager(NewMemoryStore())

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)

	claimed, err := m.ClaimPending()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, StateStarted, claimed.State)

	require.NoError(t, m.UpdateProgress(claimed, "market_research", 33))
	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateProgress, got.State)
	require.NotNil(t, got.Progress)
	assert.Equal(t, "market_research", got.Progress.Stage)
	assert.InDelta(t, 33, got.Progress.Percent, 0.01)

	require.NoError(t, m.Complete(claimed, "the final post"))
	got, err = m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, got.State)
	assert.Equal(t, "the final post", got.Result)
	assert.Nil(t, got.Error)
}

func TestLifecycleFailure(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)

	claimed, err := m.ClaimPending()
	require.NoError(t, err)
	require.NotNil(t, claimed)

	jobErr := Error{Kind: "*errors.errorString", Message: "stage blew up", Trace: "goroutine 1 [running]..."}
	require.NoError(t, m.Fail(claimed, jobErr))

	got, err := m.Get(claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, StateFailure, got.State)
	require.NotNil(t, got.Error)
	assert.NotEmpty(t, got.Error.Message)
	assert.NotEmpty(t, got.Error.Trace)
	assert.Empty(t, got.Result)
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)
	claimed, err := m.ClaimPending()
	require.NoError(t, err)
	require.NoError(t, m.Complete(claimed, "done"))

	assert.Error(t, m.UpdateProgress(claimed, "late", 50))
	assert.Error(t, m.Fail(claimed, Error{Message: "too late"}))
	assert.Error(t, m.Complete(claimed, "again"))

	got, err := m.Get(claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, got.State)
	assert.Equal(t, "done", got.Result)
}

func TestClaimPendingOrdersByCreation(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)

	first, err := m.Submit("first.com", "first")
	require.NoError(t, err)
	// Memory store orders by CreatedAt; make the gap explicit.
	second, err := m.Submit("second.com", "second")
	require.NoError(t, err)
	secondJob, err := store.Get(second.ID)
	require.NoError(t, err)
	secondJob.CreatedAt = secondJob.CreatedAt.Add(time.Millisecond)
	require.NoError(t, store.Update(secondJob))

	claimed, err := m.ClaimPending()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)

	claimed, err = m.ClaimPending()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)

	claimed, err = m.ClaimPending()
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestListMostRecentFirst(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)

	a, err := m.Submit("a.com", "a")
	require.NoError(t, err)
	b, err := m.Submit("b.com", "b")
	require.NoError(t, err)
	bJob, err := store.Get(b.ID)
	require.NoError(t, err)
	bJob.CreatedAt = bJob.CreatedAt.Add(time.Millisecond)
	require.NoError(t, store.Update(bJob))

	all, err := m.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Equal(t, a.ID, all[1].ID)
}
