// Package shell implements the operator's text menu. It reads commands line by line, dispatches them
// to inventory, settings and backup service, and reports every failure as a message without leaving the loop.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/ctlbackup/app/backup"
	"github.com/umputun/ctlbackup/app/enums"
	"github.com/umputun/ctlbackup/app/settings"
	"github.com/umputun/ctlbackup/app/store"
)

// Inventory is the robot store as used by the menu
type Inventory interface {
	CreateRobot(ctx context.Context, r store.Robot) error
	DeleteRobot(ctx context.Context, name string) error
	ListRobots(ctx context.Context) ([]store.Robot, error)
	ListByFamily(ctx context.Context, family string) ([]store.Robot, error)
	ListFamilies(ctx context.Context) ([]string, error)
	ListBackups(ctx context.Context, robot string, limit int) ([]store.BackupRecord, error)
}

// Settings loads and saves backup root
type Settings interface {
	Load() settings.Settings
	Save(st settings.Settings) error
}

// Backuper runs backups
type Backuper interface {
	BackupFamily(ctx context.Context, family string) (map[string]backup.Result, error)
	BackupOne(ctx context.Context, name string) backup.Result
}

// Shell is the interactive menu
type Shell struct {
	In           io.Reader
	Out          io.Writer
	Inventory    Inventory
	Settings     Settings
	Backup       Backuper
	Clear        bool // clear screen between menus and wait for enter after each action
	HistoryLimit int

	scanner *bufio.Scanner
}

var errQuit = errors.New("quit")

// Run blocks until quit command, end of input or canceled context. Only a broken input is returned as error.
func (s *Shell) Run(ctx context.Context) error {
	s.scanner = bufio.NewScanner(s.In)
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = 20
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.mainMenu(ctx)
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			log.Printf("[DEBUG] shell terminated, %v", err)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) mainMenu(ctx context.Context) error {
	s.clear()
	s.printf("[1] Make a backup\n[2] List robots\n[3] Add robot\n[4] Delete robot\n" +
		"[5] Change backup location\n[6] Backup history\n[7] Quit\n")
	opt, err := s.prompt("Command: ")
	if err != nil {
		return err
	}

	switch opt {
	case "1":
		return s.backupMenu(ctx)
	case "2":
		s.clear()
		s.listRobots(ctx)
	case "3":
		s.clear()
		if err := s.addRobot(ctx); err != nil {
			return err
		}
	case "4":
		s.clear()
		if err := s.deleteRobot(ctx); err != nil {
			return err
		}
	case "5":
		s.clear()
		if err := s.changePath(); err != nil {
			return err
		}
	case "6":
		s.clear()
		if err := s.history(ctx); err != nil {
			return err
		}
	case "7", "q", "quit":
		return errQuit
	default:
		s.printf("Unknown command %q\n", opt)
		return nil
	}
	return s.pause()
}

func (s *Shell) backupMenu(ctx context.Context) error {
	s.clear()
	s.printf("Backup options:\n[1] All robots in group\n[2] Select robot\n[3] Back\n")
	opt, err := s.prompt("Command: ")
	if err != nil {
		return err
	}

	switch opt {
	case "1":
		s.clear()
		s.listFamilies(ctx)
		family, err := s.prompt("Select group: ")
		if err != nil {
			return err
		}
		s.clear()
		res, err := s.Backup.BackupFamily(ctx, family)
		if err != nil {
			s.printf("Backup of group %s failed: %v\n", family, err)
			return s.pause()
		}
		if len(res) == 0 {
			s.printf("No robots found in group %s\n", family)
			return s.pause()
		}
		s.printf("%s", backup.Summary(res))
		if failed := backup.Failed(res); len(failed) > 0 {
			s.printf("%d of %d robots failed: %s\n", len(failed), len(res), strings.Join(failed, ", "))
		}
	case "2":
		s.clear()
		s.listFamilies(ctx)
		family, err := s.prompt("Select group: ")
		if err != nil {
			return err
		}
		s.clear()
		s.listFamily(ctx, family)
		name, err := s.prompt("Select robot: ")
		if err != nil {
			return err
		}
		s.clear()
		s.printf("Connecting to %s\n", name)
		res := s.Backup.BackupOne(ctx, name)
		if res.Err != nil {
			s.printf("Error backing up %s: %v\n", name, res.Err)
		} else {
			s.printf("Backup of %s pulled to %s, %d files\n", name, res.Folder, res.Files)
		}
	case "3":
		return nil
	default:
		s.printf("Unknown command %q\n", opt)
		return nil
	}
	return s.pause()
}

func (s *Shell) addRobot(ctx context.Context) error {
	name, err := s.prompt("Name: ")
	if err != nil {
		return err
	}
	addr, err := s.prompt("Robot IP: ")
	if err != nil {
		return err
	}
	family, err := s.prompt("Group name: ")
	if err != nil {
		return err
	}

	err = s.Inventory.CreateRobot(ctx, store.Robot{Name: name, Address: addr, Family: family})
	switch {
	case errors.Is(err, store.ErrDuplicateName):
		s.printf("Duplicate name %s detected, robot not added\n", name)
	case errors.Is(err, store.ErrDuplicateAddress):
		s.printf("Duplicate ip %s detected, robot not added\n", addr)
	case errors.Is(err, store.ErrInvalidRobot):
		s.printf("Name and ip are required, robot not added\n")
	case err != nil:
		s.printf("Can't add robot %s: %v\n", name, err)
	default:
		s.printf("Robot %s added\n", name)
	}
	return nil
}

func (s *Shell) deleteRobot(ctx context.Context) error {
	s.listRobots(ctx)
	name, err := s.prompt("Enter the name of the robot to delete: ")
	if err != nil {
		return err
	}
	err = s.Inventory.DeleteRobot(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.printf("No robot found with name: %s\n", name)
	case err != nil:
		s.printf("Can't delete robot %s: %v\n", name, err)
	default:
		s.printf("Robot %s deleted\n", name)
	}
	return nil
}

func (s *Shell) changePath() error {
	st := s.Settings.Load()
	s.printf("-----------------------\nCurrent path: %s\n", st.BackupRoot)
	path, err := s.prompt("New path: ")
	if err != nil {
		return err
	}
	if path == "" {
		s.printf("Backup path unchanged\n")
		return nil
	}
	if err := s.Settings.Save(settings.Settings{BackupRoot: path}); err != nil {
		s.printf("Can't change backup path to %s: %v\n", path, err)
		return nil
	}
	s.printf("Backup path updated\n")
	return nil
}

func (s *Shell) history(ctx context.Context) error {
	name, err := s.prompt("Robot name (empty for all): ")
	if err != nil {
		return err
	}
	recs, err := s.Inventory.ListBackups(ctx, name, s.HistoryLimit)
	if err != nil {
		s.printf("Can't load backup history: %v\n", err)
		return nil
	}
	if len(recs) == 0 {
		s.printf("No backups recorded\n")
		return nil
	}
	for _, r := range recs {
		line := fmt.Sprintf("%s  %-12s %-9s", r.StartedAt.Format(time.DateTime), r.Robot, r.Status)
		if r.Status == enums.JobStatusSucceeded {
			line += fmt.Sprintf(" %d files in %s", r.Files, r.Folder)
		} else if r.Error != "" {
			line += " " + r.Error
		}
		s.printf("%s\n", line)
	}
	return nil
}

func (s *Shell) listRobots(ctx context.Context) {
	robots, err := s.Inventory.ListRobots(ctx)
	if err != nil {
		s.printf("Can't list robots: %v\n", err)
		return
	}
	s.printRobots(robots)
}

func (s *Shell) listFamily(ctx context.Context, family string) {
	robots, err := s.Inventory.ListByFamily(ctx, family)
	if err != nil {
		s.printf("Can't list robots of group %s: %v\n", family, err)
		return
	}
	s.printRobots(robots)
}

func (s *Shell) printRobots(robots []store.Robot) {
	if len(robots) == 0 {
		s.printf("No robots found in DB\n")
		return
	}
	for _, r := range robots {
		s.printf("%s\n", r)
	}
	s.printf("\n")
}

func (s *Shell) listFamilies(ctx context.Context) {
	families, err := s.Inventory.ListFamilies(ctx)
	if err != nil {
		s.printf("Can't list groups: %v\n", err)
		return
	}
	for _, f := range families {
		s.printf("%s\n", f)
	}
}

// prompt prints the message and reads one trimmed line, io.EOF at the end of input
func (s *Shell) prompt(msg string) (string, error) {
	s.printf("%s", msg)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("can't read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.scanner.Text()), nil
}

func (s *Shell) pause() error {
	if !s.Clear {
		return nil
	}
	_, err := s.prompt("Press enter to return to menu")
	return err
}

func (s *Shell) clear() {
	if s.Clear {
		s.printf("\033[H\033[2J")
	}
}

func (s *Shell) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.Out, format, args...); err != nil {
		log.Printf("[WARN] can't write to console, %v", err)
	}
}
