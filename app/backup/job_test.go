package backup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/ctlbackup/app/enums"
	"github.com/umputun/ctlbackup/app/store"
	"github.com/umputun/ctlbackup/app/transfer"
)

func TestJob_Transitions(t *testing.T) {
	j := NewJob(store.Robot{Name: "R1"})
	assert.Equal(t, enums.JobStatusPending, j.Status)

	err := j.Finish(transfer.Result{}, nil)
	require.ErrorIs(t, err, ErrBadTransition, "can't finish pending job")

	st := time.Now().Add(-time.Second)
	require.NoError(t, j.Start(st))
	assert.Equal(t, enums.JobStatusRunning, j.Status)
	require.ErrorIs(t, j.Start(st), ErrBadTransition, "can't start twice")

	require.NoError(t, j.Finish(transfer.Result{Folder: "/b/R1_x", Files: []string{"a", "b"}}, nil))
	res := j.Result()
	assert.Equal(t, enums.JobStatusSucceeded, res.Status)
	assert.Equal(t, "/b/R1_x", res.Folder)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, st, res.StartedAt)
	assert.GreaterOrEqual(t, res.Duration, time.Second)

	require.ErrorIs(t, j.Finish(transfer.Result{}, errors.New("late")), ErrBadTransition, "terminal state is final")
	assert.Equal(t, enums.JobStatusSucceeded, j.Status)
}

func TestJob_Failed(t *testing.T) {
	j := NewJob(store.Robot{Name: "R2"})
	require.NoError(t, j.Start(time.Now()))
	require.NoError(t, j.Finish(transfer.Result{Folder: "/b/R2_x"}, transfer.ErrConnect))
	res := j.Result()
	assert.Equal(t, enums.JobStatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, transfer.ErrConnect)
	assert.Equal(t, "/b/R2_x", res.Folder)
}
