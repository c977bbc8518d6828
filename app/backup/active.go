package backup

import (
	"sync"
	"time"
)

// active registers robots with a job in flight. Zero value is ready to use.
type active struct {
	lock sync.Mutex
	jobs map[string]time.Time
}

// add registers the robot, returns start time of the running job and false if already registered
func (a *active) add(robot string, ts time.Time) (time.Time, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.jobs == nil {
		a.jobs = make(map[string]time.Time)
	}
	if since, found := a.jobs[robot]; found {
		return since, false
	}
	a.jobs[robot] = ts
	return ts, true
}

// remove the robot, safe to call multiple times
func (a *active) remove(robot string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	delete(a.jobs, robot)
}
