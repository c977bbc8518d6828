package store

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/ctlbackup/app/enums"
)

// BackupRecord is a finished backup job as kept in history
type BackupRecord struct {
	ID         int64
	Robot      string
	Address    string
	Family     string
	Folder     string
	Status     enums.JobStatus
	Error      string
	Files      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// backupRow is BackupRecord as stored, timestamps in unix seconds
type backupRow struct {
	ID         int64           `db:"id"`
	Robot      string          `db:"robot"`
	Address    string          `db:"address"`
	Family     string          `db:"family"`
	Folder     string          `db:"folder"`
	Status     enums.JobStatus `db:"status"`
	Error      string          `db:"error"`
	Files      int             `db:"files"`
	StartedAt  int64           `db:"started_at"`
	FinishedAt int64           `db:"finished_at"`
}

// RecordBackup logs a finished backup job
func (s *SQLite) RecordBackup(ctx context.Context, rec BackupRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backups (robot, address, family, folder, status, error, files, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Robot, rec.Address, rec.Family, rec.Folder, rec.Status.String(), rec.Error, rec.Files,
		rec.StartedAt.Unix(), rec.FinishedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record backup of %s: %w", rec.Robot, err)
	}
	return nil
}

// ListBackups returns history records, most recent first. Empty robot means all robots,
// limit <= 0 means no limit.
func (s *SQLite) ListBackups(ctx context.Context, robot string, limit int) ([]BackupRecord, error) {
	query := `SELECT id, robot, COALESCE(address, '') AS address, COALESCE(family, '') AS family,
		COALESCE(folder, '') AS folder, status, COALESCE(error, '') AS error, COALESCE(files, 0) AS files,
		COALESCE(started_at, 0) AS started_at, COALESCE(finished_at, 0) AS finished_at
		FROM backups`
	args := []any{}
	if robot != "" {
		query += ` WHERE robot = ?`
		args = append(args, robot)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows := []backupRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	res := make([]BackupRecord, 0, len(rows))
	for _, r := range rows {
		res = append(res, BackupRecord{
			ID:         r.ID,
			Robot:      r.Robot,
			Address:    r.Address,
			Family:     r.Family,
			Folder:     r.Folder,
			Status:     r.Status,
			Error:      r.Error,
			Files:      r.Files,
			StartedAt:  time.Unix(r.StartedAt, 0),
			FinishedAt: time.Unix(r.FinishedAt, 0),
		})
	}
	return res, nil
}
