package backup

import (
	"errors"
	"fmt"
	"time"

	"github.com/umputun/ctlbackup/app/enums"
	"github.com/umputun/ctlbackup/app/store"
	"github.com/umputun/ctlbackup/app/transfer"
)

var (
	// ErrBadTransition returned on attempt to move a job out of a terminal state or skip running
	ErrBadTransition = errors.New("invalid job state transition")
	// ErrBusy returned if the robot already has a backup in flight
	ErrBusy = errors.New("backup already in progress")
)

// Job is a single robot backup in flight. Not persisted, lives for one orchestration call.
type Job struct {
	Robot     store.Robot
	StartedAt time.Time
	Folder    string
	Status    enums.JobStatus
	Err       error

	files    int
	finished time.Time
}

// NewJob makes pending job for robot
func NewJob(robot store.Robot) *Job {
	return &Job{Robot: robot, Status: enums.JobStatusPending}
}

// Start moves pending job to running
func (j *Job) Start(ts time.Time) error {
	if j.Status != enums.JobStatusPending {
		return fmt.Errorf("%w: %s -> %s for %s", ErrBadTransition, j.Status, enums.JobStatusRunning, j.Robot.Name)
	}
	j.Status, j.StartedAt = enums.JobStatusRunning, ts
	return nil
}

// Finish moves running job to succeeded or failed, depending on err
func (j *Job) Finish(fr transfer.Result, err error) error {
	if j.Status != enums.JobStatusRunning {
		return fmt.Errorf("%w: %s -> done for %s", ErrBadTransition, j.Status, j.Robot.Name)
	}
	j.finished = time.Now()
	j.Folder, j.files, j.Err = fr.Folder, len(fr.Files), err
	j.Status = enums.JobStatusSucceeded
	if err != nil {
		j.Status = enums.JobStatusFailed
	}
	return nil
}

// Result returns snapshot of the job
func (j *Job) Result() Result {
	res := Result{Robot: j.Robot, Folder: j.Folder, Status: j.Status, Err: j.Err, Files: j.files, StartedAt: j.StartedAt}
	if !j.finished.IsZero() {
		res.Duration = j.finished.Sub(j.StartedAt)
	}
	return res
}
