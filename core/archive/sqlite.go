package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/tecsched/core/result"
)

// Entry is one row of the result index.
type Entry struct {
	RunID            string        `json:"run_id"`
	Key              Key           `json:"key"`
	Status           result.Status `json:"status"`
	Objective        *int          `json:"objective,omitempty"`
	LowerBound       *float64      `json:"lower_bound,omitempty"`
	RunningTime      time.Duration `json:"running_time"`
	TimeLimitReached bool          `json:"time_limit_reached"`
	SavedAt          time.Time     `json:"saved_at"`
}

// Filter selects index entries. Empty fields match everything.
type Filter struct {
	Prescription string
	Dataset      string
	SolverID     string
	Instance     string
	Status       *result.Status
}

// SQLiteIndex keeps a queryable summary of every saved result.
type SQLiteIndex struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteIndex opens or creates the database and ensures schema.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS results (
        run_id TEXT NOT NULL,
        prescription TEXT NOT NULL,
        dataset TEXT NOT NULL,
        solver_id TEXT NOT NULL,
        instance TEXT NOT NULL,
        status INTEGER NOT NULL,
        objective INTEGER,
        lower_bound REAL,
        running_ms INTEGER NOT NULL,
        time_limit_reached INTEGER NOT NULL,
        saved_at INTEGER NOT NULL,
        PRIMARY KEY(prescription, dataset, solver_id, instance)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db, now: time.Now}, nil
}

// Save inserts or replaces the summary of r. The run id is taken from
// r.AdditionalInfo["RunId"] when present.
func (s *SQLiteIndex) Save(ctx context.Context, k Key, r *result.Result) error {
	runID, _ := r.AdditionalInfo["RunId"].(string)
	if runID == "" {
		runID = uuid.NewString()
	}
	var obj sql.NullInt64
	if r.Objective != nil {
		obj = sql.NullInt64{Int64: int64(*r.Objective), Valid: true}
	}
	var lb sql.NullFloat64
	if r.LowerBound != nil {
		lb = sql.NullFloat64{Float64: *r.LowerBound, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO results
        (run_id, prescription, dataset, solver_id, instance, status, objective, lower_bound,
         running_ms, time_limit_reached, saved_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(prescription, dataset, solver_id, instance) DO UPDATE SET
            run_id = excluded.run_id,
            status = excluded.status,
            objective = excluded.objective,
            lower_bound = excluded.lower_bound,
            running_ms = excluded.running_ms,
            time_limit_reached = excluded.time_limit_reached,
            saved_at = excluded.saved_at`,
		runID, k.Prescription, k.Dataset, k.SolverID, k.Instance, int(r.Status), obj, lb,
		r.RunningTime.Milliseconds(), r.TimeLimitReached, s.now().UTC().UnixMilli())
	return err
}

// Query returns the entries matching f ordered by key.
func (s *SQLiteIndex) Query(ctx context.Context, f Filter) ([]Entry, error) {
	q := `SELECT run_id, prescription, dataset, solver_id, instance, status, objective,
        lower_bound, running_ms, time_limit_reached, saved_at FROM results WHERE 1=1`
	var args []any
	for _, c := range []struct {
		col string
		val string
	}{
		{"prescription", f.Prescription},
		{"dataset", f.Dataset},
		{"solver_id", f.SolverID},
		{"instance", f.Instance},
	} {
		if c.val != "" {
			q += " AND " + c.col + " = ?"
			args = append(args, c.val)
		}
	}
	if f.Status != nil {
		q += " AND status = ?"
		args = append(args, int(*f.Status))
	}
	q += " ORDER BY prescription, dataset, solver_id, instance"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var (
			e         Entry
			status    int
			obj       sql.NullInt64
			lb        sql.NullFloat64
			runningMs int64
			savedAtMs int64
		)
		if err := rows.Scan(&e.RunID, &e.Key.Prescription, &e.Key.Dataset, &e.Key.SolverID,
			&e.Key.Instance, &status, &obj, &lb, &runningMs, &e.TimeLimitReached, &savedAtMs); err != nil {
			return nil, err
		}
		e.Status = result.Status(status)
		if obj.Valid {
			v := int(obj.Int64)
			e.Objective = &v
		}
		if lb.Valid {
			v := lb.Float64
			e.LowerBound = &v
		}
		e.RunningTime = time.Duration(runningMs) * time.Millisecond
		e.SavedAt = time.UnixMilli(savedAtMs).UTC()
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteIndex) Close() error { return s.db.Close() }
