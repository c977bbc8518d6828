// Package transfer pulls all files a robot controller exposes over anonymous ftp into a fresh local folder
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/ctlbackup/app/store"
)

// FolderTimeFormat is the timestamp part of the backup folder name, ddMMyyyy_HHmm
const FolderTimeFormat = "02012006_1504"

var (
	// ErrFolderCreate returned if destination folder can't be made, including the case of existing folder
	ErrFolderCreate = errors.New("can't create backup folder")
	// ErrConnect returned if controller can't be reached or refused the anonymous login
	ErrConnect = errors.New("can't connect")
	// ErrList returned if remote listing failed
	ErrList = errors.New("can't list remote files")
	// ErrDownload returned on the first failed file, it aborts the rest of the job
	ErrDownload = errors.New("can't download")
)

// Conn is a single logged-in connection to a controller
type Conn interface {
	NameList(path string) ([]string, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

// Dialer makes logged-in connections
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Progress receives per-file progress of a single job
type Progress interface {
	Increment()
	Finish()
}

// ProgressMaker makes Progress for the robot with total number of files
type ProgressMaker func(robot string, total int) Progress

// Client fetches backups. Dialer is required, all other fields optional.
type Client struct {
	Dialer   Dialer
	Repeater Repeater      // retries dial only, nil means a single attempt
	Progress ProgressMaker // nil means progress logged only
	Now      func() time.Time
}

// Result of a single fetch. Folder is set as soon as it was created, even if the fetch failed later.
type Result struct {
	Folder string
	Files  []string
}

// FolderName returns backup folder name for robot started at ts
func FolderName(robot string, ts time.Time) string {
	return robot + "_" + ts.Format(FolderTimeFormat)
}

// FetchAll downloads every listed file of the robot into destRoot/<name>_<ddMMyyyy_HHmm>.
// Steps are strictly ordered: folder, connect, list, sequential downloads in listing order.
// Connection closed on every exit path after a successful dial.
func (c *Client) FetchAll(ctx context.Context, robot store.Robot, destRoot string) (res Result, err error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	folder := filepath.Join(destRoot, FolderName(robot.Name, now()))
	if err = os.Mkdir(folder, 0o750); err != nil {
		return res, fmt.Errorf("%w %s for %s: %w", ErrFolderCreate, folder, robot.Name, err)
	}
	res.Folder = folder

	log.Printf("[INFO] connecting to %s (%s)", robot.Name, robot.Address)
	conn, err := c.dial(ctx, robot.Address)
	if err != nil {
		return res, fmt.Errorf("%w to %s at %s: %w", ErrConnect, robot.Name, robot.Address, err)
	}

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			if e := conn.Quit(); e != nil {
				log.Printf("[DEBUG] can't close connection to %s, %v", robot.Name, e)
			}
		})
	}
	defer closeConn()

	// closing the connection on cancellation unblocks a hung transfer
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	entries, err := conn.NameList("")
	if err != nil {
		return res, fmt.Errorf("%w on %s: %w", ErrList, robot.Name, err)
	}
	files := filterEntries(entries)
	log.Printf("[INFO] connected to %s, pulling %d files to %s", robot.Name, len(files), folder)

	progress := c.makeProgress(robot.Name, len(files))
	defer progress.Finish()

	for _, f := range files {
		if err = ctx.Err(); err != nil {
			return res, fmt.Errorf("%w %s from %s: %w", ErrDownload, f, robot.Name, err)
		}
		if err = c.download(ctx, conn, f, folder); err != nil {
			return res, fmt.Errorf("%w %s from %s: %w", ErrDownload, f, robot.Name, err)
		}
		res.Files = append(res.Files, f)
		progress.Increment()
	}

	log.Printf("[INFO] backup of %s completed, %d files in %s", robot.Name, len(res.Files), folder)
	return res, nil
}

func (c *Client) dial(ctx context.Context, addr string) (conn Conn, err error) {
	if c.Repeater == nil {
		return c.Dialer.Dial(ctx, addr)
	}
	err = c.Repeater.Do(ctx, func() error {
		var e error
		conn, e = c.Dialer.Dial(ctx, addr)
		if e != nil {
			log.Printf("[DEBUG] dial %s failed, %v", addr, e)
		}
		return e
	})
	return conn, err
}

// download retrieves remote file into folder under the same name, overwriting existing file
func (c *Client) download(ctx context.Context, conn Conn, name, folder string) error {
	dst := filepath.Join(folder, filepath.Base(name))
	r, err := conn.Retr(name)
	if err != nil {
		return err
	}
	defer r.Close()

	fh, err := os.Create(dst) // nolint gosec
	if err != nil {
		return fmt.Errorf("can't create %s: %w", dst, err)
	}
	// a partial file is removed, folder keeps only complete files
	if _, err := io.Copy(fh, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = fh.Close()
		removePartial(dst)
		return fmt.Errorf("can't write %s: %w", dst, err)
	}
	if err := fh.Close(); err != nil {
		removePartial(dst)
		return fmt.Errorf("can't close %s: %w", dst, err)
	}
	return nil
}

func removePartial(fname string) {
	if err := os.Remove(fname); err != nil {
		log.Printf("[WARN] can't remove partial file %s, %v", fname, err)
	}
}

func (c *Client) makeProgress(robot string, total int) Progress {
	if c.Progress != nil {
		return c.Progress(robot, total)
	}
	return &LogProgress{Robot: robot, Total: total}
}

// filterEntries drops directory pseudo-entries some controllers include in NLST
func filterEntries(entries []string) []string {
	res := make([]string, 0, len(entries))
	for _, e := range entries {
		if b := filepath.Base(e); b == "." || b == ".." || b == "/" {
			continue
		}
		res = append(res, e)
	}
	return res
}

// ctxReader stops reading as soon as context canceled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
