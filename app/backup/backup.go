// Package backup runs robot backup jobs. A family backup fans out one isolated job per robot on a bounded
// worker group, collects every outcome and never lets one failure affect the siblings.
package backup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/umputun/ctlbackup/app/enums"
	"github.com/umputun/ctlbackup/app/settings"
	"github.com/umputun/ctlbackup/app/store"
	"github.com/umputun/ctlbackup/app/transfer"
)

//go:generate moq -out mocks/inventory.go -pkg mocks -skip-ensure -fmt goimports . Inventory
//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/settings.go -pkg mocks -skip-ensure -fmt goimports . SettingsLoader
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . History
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Service is the backup orchestrator. Inventory, Fetcher and Settings are required.
type Service struct {
	Inventory    Inventory
	Fetcher      Fetcher
	Settings     SettingsLoader
	History      History  // optional, finished jobs recorded if set
	Notifier     Notifier // optional, family failures reported if set
	Workers      int      // max concurrent jobs, 0 means one worker per robot
	JobTimeout   time.Duration
	MinFreeBytes uint64                                               // warn if backup root has less free space
	FreeSpace    func(ctx context.Context, path string) (uint64, error) // nil means gopsutil disk usage

	running active
}

// Inventory is the part of the robot store used for backups
type Inventory interface {
	GetRobot(ctx context.Context, name string) (store.Robot, error)
	ListByFamily(ctx context.Context, family string) ([]store.Robot, error)
}

// Fetcher pulls all files of a single robot
type Fetcher interface {
	FetchAll(ctx context.Context, robot store.Robot, destRoot string) (transfer.Result, error)
}

// SettingsLoader provides backup root
type SettingsLoader interface {
	Load() settings.Settings
}

// History keeps finished jobs
type History interface {
	RecordBackup(ctx context.Context, rec store.BackupRecord) error
}

// Notifier delivers failure reports
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
}

// Result is the outcome of a single robot backup
type Result struct {
	Robot     store.Robot
	Folder    string
	Status    enums.JobStatus
	Err       error
	Files     int
	StartedAt time.Time
	Duration  time.Duration
}

// BackupFamily backs up all robots of the family concurrently and returns outcome per robot name.
// Empty family is not an error. The error returned only if the family can't be resolved.
func (s *Service) BackupFamily(ctx context.Context, family string) (map[string]Result, error) {
	robots, err := s.Inventory.ListByFamily(ctx, family)
	if err != nil {
		return nil, fmt.Errorf("can't resolve family %s: %w", family, err)
	}
	res := make(map[string]Result, len(robots))
	if len(robots) == 0 {
		log.Printf("[INFO] no robots in family %q", family)
		return res, nil
	}

	root := s.Settings.Load().BackupRoot // read once, shared read-only by all jobs
	s.checkFreeSpace(ctx, root)

	workers := s.Workers
	if workers <= 0 || workers > len(robots) {
		workers = len(robots)
	}
	log.Printf("[INFO] backup of family %q, %d robots, %d workers, to %s", family, len(robots), workers, root)

	var mu sync.Mutex
	gr := syncs.NewSizedGroup(workers)
	for _, r := range robots {
		gr.Go(func(context.Context) {
			jr := s.runJob(ctx, r, root)
			mu.Lock()
			res[r.Name] = jr
			mu.Unlock()
		})
	}
	gr.Wait()

	if failed := Failed(res); len(failed) > 0 {
		log.Printf("[WARN] backup of family %q, %d of %d failed: %s", family, len(failed), len(res), strings.Join(failed, ", "))
		s.notify(ctx, fmt.Sprintf("backup of %s: %d of %d robots failed", family, len(failed), len(res)), Summary(res))
	}
	return res, nil
}

// BackupOne backs up a single robot by name. Unknown robot reported as failed result.
func (s *Service) BackupOne(ctx context.Context, name string) Result {
	robot, err := s.Inventory.GetRobot(ctx, name)
	if err != nil {
		return Result{Robot: store.Robot{Name: name}, Status: enums.JobStatusFailed, Err: err, StartedAt: time.Now()}
	}
	root := s.Settings.Load().BackupRoot
	s.checkFreeSpace(ctx, root)
	res := s.runJob(ctx, robot, root)
	if res.Err != nil {
		s.notify(ctx, fmt.Sprintf("backup of %s failed", name), Summary(map[string]Result{name: res}))
	}
	return res
}

// runJob executes one job through pending -> running -> succeeded|failed and records it
func (s *Service) runJob(ctx context.Context, robot store.Robot, root string) Result {
	if since, ok := s.running.add(robot.Name, time.Now()); !ok {
		log.Printf("[WARN] backup of %s skipped, running since %s", robot.Name, since.Format(time.TimeOnly))
		return Result{Robot: robot, Status: enums.JobStatusFailed, StartedAt: time.Now(),
			Err: fmt.Errorf("%w for %s since %s", ErrBusy, robot.Name, since.Format(time.TimeOnly))}
	}
	defer s.running.remove(robot.Name)

	job := NewJob(robot)
	if s.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.JobTimeout)
		defer cancel()
	}

	if err := job.Start(time.Now()); err != nil {
		return job.Result()
	}
	fr, err := s.Fetcher.FetchAll(ctx, robot, root)
	if err != nil {
		log.Printf("[WARN] backup of %s failed, %v", robot.Name, err)
	}
	if e := job.Finish(fr, err); e != nil {
		log.Printf("[WARN] %v", e)
	}
	res := job.Result()

	if s.History != nil {
		rec := store.BackupRecord{Robot: robot.Name, Address: robot.Address, Family: robot.Family, Folder: res.Folder,
			Status: res.Status, Files: res.Files, StartedAt: res.StartedAt, FinishedAt: res.StartedAt.Add(res.Duration)}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		// history written even if the job context is done
		if e := s.History.RecordBackup(context.WithoutCancel(ctx), rec); e != nil {
			log.Printf("[WARN] can't record backup of %s, %v", robot.Name, e)
		}
	}
	return res
}

func (s *Service) notify(ctx context.Context, subj, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(ctx, subj, text); err != nil {
		log.Printf("[WARN] failed to notify, %v", err)
	}
}

// checkFreeSpace warns if backup root is short on space, it never blocks the backup
func (s *Service) checkFreeSpace(ctx context.Context, root string) {
	if s.MinFreeBytes == 0 {
		return
	}
	freeSpace := s.FreeSpace
	if freeSpace == nil {
		freeSpace = diskFree
	}
	free, err := freeSpace(ctx, root)
	if err != nil {
		log.Printf("[DEBUG] can't get free space for %s, %v", root, err)
		return
	}
	if free < s.MinFreeBytes {
		log.Printf("[WARN] low disk space on %s, %d bytes free, %d expected", root, free, s.MinFreeBytes)
	}
}

func diskFree(ctx context.Context, path string) (uint64, error) {
	st, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return st.Free, nil
}

// Failed returns sorted names of failed robots
func Failed(results map[string]Result) []string {
	res := []string{}
	for name, r := range results {
		if r.Status != enums.JobStatusSucceeded {
			res = append(res, name)
		}
	}
	sort.Strings(res)
	return res
}

// Summary makes human-readable report, one line per robot sorted by name
func Summary(results map[string]Result) string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	sb := strings.Builder{}
	for _, name := range names {
		r := results[name]
		switch {
		case r.Status == enums.JobStatusSucceeded:
			fmt.Fprintf(&sb, "%s: %s, %d files in %s (%v)\n", name, r.Status, r.Files, r.Folder, r.Duration.Round(time.Millisecond))
		case r.Err != nil:
			fmt.Fprintf(&sb, "%s: %s, %v\n", name, r.Status, r.Err)
		default:
			fmt.Fprintf(&sb, "%s: %s\n", name, r.Status)
		}
	}
	return sb.String()
}
