package transfer

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	log "github.com/go-pkgz/lgr"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// BarProgress makes console progress bars writing to w. Used for single robot backups,
// concurrent bars would interleave on one console.
func BarProgress(w io.Writer) ProgressMaker {
	return func(robot string, total int) Progress {
		bar := pb.New(total)
		bar.Output = w
		bar.ShowFinalTime = false
		bar.SetMaxWidth(80)
		bar.Prefix(robot + " ")
		bar.Start()
		return &barProgress{bar: bar}
	}
}

// ConsoleProgress shows a bar for one job at a time, jobs started while a bar is active report with log lines
func ConsoleProgress(w io.Writer) ProgressMaker {
	var active atomic.Bool
	bars := BarProgress(w)
	return func(robot string, total int) Progress {
		if !active.CompareAndSwap(false, true) {
			return &LogProgress{Robot: robot, Total: total, Out: w}
		}
		return &releaseProgress{Progress: bars(robot, total), release: func() { active.Store(false) }}
	}
}

type releaseProgress struct {
	Progress
	release func()
}

func (r *releaseProgress) Finish() {
	r.Progress.Finish()
	r.release()
}

type barProgress struct {
	bar *pb.ProgressBar
}

func (b *barProgress) Increment() { b.bar.Increment() }
func (b *barProgress) Finish()    { b.bar.Finish() }

// LogProgress reports progress as log lines, safe for many concurrent jobs
type LogProgress struct {
	Robot string
	Total int
	Out   io.Writer // optional, gets a done/total line per file

	mu   sync.Mutex
	done int
}

// Increment counts one more downloaded file
func (p *LogProgress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	log.Printf("[INFO] %s: %d/%d files", p.Robot, p.done, p.Total)
	if p.Out != nil {
		if _, err := fmt.Fprintf(p.Out, "%s: %d/%d files\n", p.Robot, p.done, p.Total); err != nil {
			log.Printf("[WARN] can't write progress of %s, %v", p.Robot, err)
		}
	}
}

// Finish does nothing, completion is logged by the client
func (p *LogProgress) Finish() {}

// Done returns number of completed files
func (p *LogProgress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
