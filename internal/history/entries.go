package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const entryColumns = "id, run_id, source, title, status, accent, confidence, explanation, method, transcriber, transcript, error_message, duration_seconds, created_at, finished_at"

// Record inserts a finished analysis and returns the stored entry.
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if strings.TrimSpace(entry.RunID) == "" {
		return nil, errors.New("history entry requires a run id")
	}
	if _, ok := statusSet[entry.Status]; !ok {
		return nil, fmt.Errorf("history entry has unknown status %q", entry.Status)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}

	res, err := s.exec(
		ctx,
		`INSERT INTO analyses (
            run_id, source, title, status, accent, confidence, explanation,
            method, transcriber, transcript, error_message, duration_seconds,
            created_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Source,
		nullableString(entry.Title),
		entry.Status,
		nullableString(entry.Accent),
		entry.Confidence,
		nullableString(entry.Explanation),
		nullableString(entry.Method),
		nullableString(entry.Transcriber),
		nullableString(entry.Transcript),
		nullableString(entry.ErrorMessage),
		entry.DurationSeconds,
		formatTime(entry.CreatedAt),
		formatTime(entry.FinishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches an entry by identifier. It returns nil when no entry matches.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM analyses WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return entry, nil
}

// GetByRunID fetches an entry by the run identifier assigned by the pipeline.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM analyses WHERE run_id = ?`, runID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis by run id: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first. A non-positive limit returns every
// entry; statuses narrow the result when provided.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM analyses`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Summary counts entries by status.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM analyses GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("history summary: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		case StatusInvalid:
			summary.Invalid += count
		}
	}
	return summary, rows.Err()
}

// Remove deletes entries by identifier and returns how many were removed.
func (s *Store) Remove(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.exec(ctx, `DELETE FROM analyses WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove analyses: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("clear analyses: %w", err)
	}
	return res.RowsAffected()
}

// Prune keeps the newest keep entries and deletes the rest. A non-positive
// keep disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.exec(
		ctx,
		`DELETE FROM analyses WHERE id NOT IN (
            SELECT id FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?
        )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune analyses: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		statusStr   string
		title       sql.NullString
		accent      sql.NullString
		explanation sql.NullString
		method      sql.NullString
		transcriber sql.NullString
		transcript  sql.NullString
		errorMsg    sql.NullString
		createdRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Source,
		&title,
		&statusStr,
		&accent,
		&entry.Confidence,
		&explanation,
		&method,
		&transcriber,
		&transcript,
		&errorMsg,
		&entry.DurationSeconds,
		&createdRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	entry.Status = Status(statusStr)
	entry.Title = title.String
	entry.Accent = accent.String
	entry.Explanation = explanation.String
	entry.Method = method.String
	entry.Transcriber = transcriber.String
	entry.Transcript = transcript.String
	entry.ErrorMessage = errorMsg.String
	entry.CreatedAt = parseTime(createdRaw)
	if finishedRaw.Valid {
		entry.FinishedAt = parseTime(finishedRaw.String)
	}
	return &entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so ORDER BY on the text column sorts by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
