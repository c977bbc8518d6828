package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadDefault(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "data.json")
	s := New(fname, "/default/root")

	st := s.Load()
	assert.Equal(t, "/default/root", st.BackupRoot)

	data, err := os.ReadFile(fname)
	require.NoError(t, err, "default persisted")
	assert.Contains(t, string(data), `"backup_root": "/default/root"`)

	// another store with a different default must see the persisted value
	st = New(fname, "/other").Load()
	assert.Equal(t, "/default/root", st.BackupRoot, "no re-defaulting")
}

func TestStore_LoadBroken(t *testing.T) {
	tbl := []struct {
		name, content string
	}{
		{"empty file", ""},
		{"bad json", "{not json"},
		{"empty root", `{"backup_root": ""}`},
		{"other keys only", `{"something": "else"}`},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			fname := filepath.Join(t.TempDir(), "data.json")
			require.NoError(t, os.WriteFile(fname, []byte(tt.content), 0o600))
			st := New(fname, "/def").Load()
			assert.Equal(t, "/def", st.BackupRoot)
			assert.Equal(t, "/def", New(fname, "/xxx").Load().BackupRoot)
		})
	}
}

func TestStore_Save(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "conf", "data.json")
	s := New(fname, dir)

	newRoot := filepath.Join(dir, "backups")
	require.NoError(t, os.Mkdir(newRoot, 0o700))
	require.NoError(t, s.Save(Settings{BackupRoot: newRoot}))
	assert.Equal(t, newRoot, s.Load().BackupRoot)

	err := s.Save(Settings{BackupRoot: filepath.Join(dir, "not-there")})
	require.ErrorIs(t, err, ErrConfigIO)
	assert.Equal(t, newRoot, s.Load().BackupRoot, "unchanged on failed save")

	err = s.Save(Settings{BackupRoot: ""})
	require.ErrorIs(t, err, ErrConfigIO)

	fileRoot := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(fileRoot, []byte("x"), 0o600))
	err = s.Save(Settings{BackupRoot: fileRoot})
	require.ErrorIs(t, err, ErrConfigIO)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestStore_SaveWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// parent of settings file is a regular file, so nothing can be written there
	s := New(filepath.Join(blocker, "data.json"), dir)
	err := s.Save(Settings{BackupRoot: dir})
	require.ErrorIs(t, err, ErrConfigIO)

	st := s.Load()
	assert.Equal(t, dir, st.BackupRoot, "default returned even if it can't be persisted")
}
