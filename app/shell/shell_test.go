package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/ctlbackup/app/backup"
	"github.com/umputun/ctlbackup/app/enums"
	"github.com/umputun/ctlbackup/app/settings"
	"github.com/umputun/ctlbackup/app/store"
	"github.com/umputun/ctlbackup/app/transfer"
)

type fakeBackuper struct {
	families []string
	robots   []string
	family   map[string]backup.Result
	familyEr error
	one      backup.Result
}

func (f *fakeBackuper) BackupFamily(_ context.Context, family string) (map[string]backup.Result, error) {
	f.families = append(f.families, family)
	return f.family, f.familyEr
}

func (f *fakeBackuper) BackupOne(_ context.Context, name string) backup.Result {
	f.robots = append(f.robots, name)
	return f.one
}

func prepShell(t *testing.T, input string, bk *fakeBackuper) (*Shell, *bytes.Buffer, *store.SQLite, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewSQLite(filepath.Join(dir, "robots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	out := &bytes.Buffer{}
	sh := &Shell{
		In:        strings.NewReader(input),
		Out:       out,
		Inventory: db,
		Settings:  settings.New(filepath.Join(dir, "data.json"), dir),
		Backup:    bk,
	}
	return sh, out, db, dir
}

func lines(l ...string) string { return strings.Join(l, "\n") + "\n" }

func TestShell_AddListDelete(t *testing.T) {
	input := lines(
		"3", "R1", "10.0.0.5", "FANUC",
		"3", "R1", "10.0.0.6", "FANUC",
		"3", "R2", "10.0.0.5", "FANUC",
		"3", "", "10.0.0.8", "X",
		"3", "R3", "10.0.0.7", "ABB",
		"2",
		"4", "nope",
		"4", "R3",
		"7",
	)
	sh, out, db, _ := prepShell(t, input, &fakeBackuper{})
	require.NoError(t, sh.Run(context.Background()))

	res := out.String()
	assert.Contains(t, res, "Robot R1 added")
	assert.Contains(t, res, "Duplicate name R1 detected, robot not added")
	assert.Contains(t, res, "Duplicate ip 10.0.0.5 detected, robot not added")
	assert.Contains(t, res, "Name and ip are required, robot not added")
	assert.Contains(t, res, "name: R3 || address: 10.0.0.7 || family: ABB\nname: R1 || address: 10.0.0.5 || family: FANUC")
	assert.Contains(t, res, "No robot found with name: nope")
	assert.Contains(t, res, "Robot R3 deleted")

	robots, err := db.ListRobots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.Robot{{Name: "R1", Address: "10.0.0.5", Family: "FANUC"}}, robots)
}

func TestShell_ChangePath(t *testing.T) {
	sh, out, _, dir := prepShell(t, "", &fakeBackuper{})
	newRoot := filepath.Join(dir, "bk")
	require.NoError(t, os.Mkdir(newRoot, 0o700))
	sh.In = strings.NewReader(lines("5", filepath.Join(dir, "missing"), "5", "", "5", newRoot, "7"))

	require.NoError(t, sh.Run(context.Background()))
	res := out.String()
	assert.Contains(t, res, "Current path: "+dir)
	assert.Contains(t, res, "Can't change backup path to "+filepath.Join(dir, "missing"))
	assert.Contains(t, res, "Backup path unchanged")
	assert.Contains(t, res, "Backup path updated")
	assert.Equal(t, newRoot, sh.Settings.Load().BackupRoot)
}

func TestShell_BackupFamily(t *testing.T) {
	bk := &fakeBackuper{family: map[string]backup.Result{
		"A": {Status: enums.JobStatusSucceeded, Files: 2, Folder: "/b/A_1"},
		"B": {Status: enums.JobStatusFailed, Err: errors.New("can't connect to B at 10.0.0.2")},
	}}
	sh, out, db, _ := prepShell(t, lines("1", "1", "LINE1", "7"), bk)
	require.NoError(t, db.CreateRobot(context.Background(), store.Robot{Name: "A", Address: "1", Family: "LINE1"}))
	require.NoError(t, db.CreateRobot(context.Background(), store.Robot{Name: "B", Address: "2", Family: "LINE2"}))

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"LINE1"}, bk.families)
	res := out.String()
	assert.Contains(t, res, "LINE1\nLINE2\nSelect group: ")
	assert.Contains(t, res, "A: succeeded, 2 files in /b/A_1")
	assert.Contains(t, res, "B: failed, can't connect to B at 10.0.0.2")
	assert.Contains(t, res, "1 of 2 robots failed: B")
}

func TestShell_BackupFamilyEmptyAndError(t *testing.T) {
	bk := &fakeBackuper{family: map[string]backup.Result{}}
	sh, out, _, _ := prepShell(t, lines("1", "1", "NONE", "7"), bk)
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "No robots found in group NONE")

	bk = &fakeBackuper{familyEr: errors.New("db locked")}
	sh, out, _, _ = prepShell(t, lines("1", "1", "X", "7"), bk)
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "Backup of group X failed: db locked")
}

func TestShell_BackupOne(t *testing.T) {
	bk := &fakeBackuper{one: backup.Result{Status: enums.JobStatusSucceeded, Folder: "/b/R1_x", Files: 2}}
	sh, out, db, _ := prepShell(t, lines("1", "2", "FANUC", "R1", "1", "3", "7"), bk)
	require.NoError(t, db.CreateRobot(context.Background(), store.Robot{Name: "R1", Address: "10.0.0.5", Family: "FANUC"}))

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"R1"}, bk.robots)
	res := out.String()
	assert.Contains(t, res, "name: R1 || address: 10.0.0.5 || family: FANUC")
	assert.Contains(t, res, "Backup of R1 pulled to /b/R1_x, 2 files")

	bk = &fakeBackuper{one: backup.Result{Status: enums.JobStatusFailed, Err: transfer.ErrConnect}}
	sh, out, _, _ = prepShell(t, lines("1", "2", "X", "R9", "7"), bk)
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "Error backing up R9: can't connect")
}

func TestShell_History(t *testing.T) {
	sh, out, db, _ := prepShell(t, lines("6", "", "6", "R2", "6", "none", "7"), &fakeBackuper{})
	ctx := context.Background()
	ts := time.Date(2026, 10, 18, 10, 0, 0, 0, time.Local)
	require.NoError(t, db.RecordBackup(ctx, store.BackupRecord{Robot: "R1", Status: enums.JobStatusSucceeded,
		Files: 3, Folder: "/b/R1_x", StartedAt: ts, FinishedAt: ts}))
	require.NoError(t, db.RecordBackup(ctx, store.BackupRecord{Robot: "R2", Status: enums.JobStatusFailed,
		Error: "can't connect", StartedAt: ts.Add(time.Minute), FinishedAt: ts.Add(time.Minute)}))

	require.NoError(t, sh.Run(ctx))
	res := out.String()
	assert.Contains(t, res, "2026-10-18 10:00:00  R1           succeeded 3 files in /b/R1_x")
	assert.Contains(t, res, "2026-10-18 10:01:00  R2           failed    can't connect")
	assert.Contains(t, res, "No backups recorded")
}

func TestShell_EndOfInputAndUnknown(t *testing.T) {
	sh, out, _, _ := prepShell(t, lines("9", "1", "8"), &fakeBackuper{})
	require.NoError(t, sh.Run(context.Background()), "eof terminates")
	assert.Contains(t, out.String(), `Unknown command "9"`)
	assert.Contains(t, out.String(), `Unknown command "8"`)
}

func TestShell_ClearAndPause(t *testing.T) {
	sh, out, _, _ := prepShell(t, lines("2", "", "7"), &fakeBackuper{})
	sh.Clear = true
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "\033[H\033[2J")
	assert.Contains(t, out.String(), "Press enter to return to menu")
	assert.Contains(t, out.String(), "No robots found in DB")
}

func TestShell_Canceled(t *testing.T) {
	sh, _, _, _ := prepShell(t, lines("2"), &fakeBackuper{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sh.Run(ctx), context.Canceled)
}
