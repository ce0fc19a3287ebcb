package scoreboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
	"ucampus-grades/lib/gradereport"
	"ucampus-grades/lib/scoreboard/db"
	"ucampus-grades/lib/telemetry"
	"ucampus-grades/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("ucampus.lib.scoreboard")

var ErrNotFound = errors.New("student not found in scoreboard")

// Store keeps the latest StudentRecord of every student that synced.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Migrate creates the scoreboard table if it does not exist yet.
func (s Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, db.Schema)
	return err
}

type Entry struct {
	StudentName string
	RunID       string
	UpdatedAt   time.Time
	Record      gradereport.StudentRecord
}

// Put replaces the stored record of `record.StudentName`.
func (s Store) Put(ctx context.Context, runID string, at time.Time, record gradereport.StudentRecord) error {
	ctx, span := tracer.Start(ctx, "Store:Put")
	defer span.End()

	serialized, err := json.Marshal(record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize record")
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`insert into scoreboard(student_name, run_id, updated_at, record)
		values (?, ?, ?, ?)
		on conflict(student_name) do update set
			run_id = excluded.run_id,
			updated_at = excluded.updated_at,
			record = excluded.record`,
		record.StudentName,
		runID,
		at.Unix(),
		string(serialized),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert record")
		return err
	}
	return nil
}

func (s Store) scanEntry(ctx context.Context, row interface{ Scan(...any) error }) (Entry, error) {
	var entry Entry
	var updatedAt int64
	var record string
	err := row.Scan(&entry.StudentName, &entry.RunID, &updatedAt, &record)
	if err != nil {
		return Entry{}, err
	}
	entry.UpdatedAt = time.Unix(updatedAt, 0).In(timezone.Location)
	err = json.Unmarshal([]byte(record), &entry.Record)
	if err != nil {
		slog.WarnContext(ctx, "failed to unmarshal scoreboard record", "student", entry.StudentName, "err", err)
	}
	return entry, nil
}

func (s Store) Get(ctx context.Context, studentName string) (Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`select student_name, run_id, updated_at, record from scoreboard
		where student_name = ?`,
		studentName,
	)
	entry, err := s.scanEntry(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// List returns every entry, most recently updated first.
func (s Store) List(ctx context.Context) ([]Entry, error) {
	ctx, span := tracer.Start(ctx, "Store:List")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`select student_name, run_id, updated_at, record from scoreboard
		order by updated_at desc, student_name asc`,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query scoreboard")
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := s.scanEntry(ctx, rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, rows.Err()
}
