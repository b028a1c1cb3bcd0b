package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

var ErrDuplicateRecord = errors.New("record already journaled")

const mysqlErrDuplicateEntry = 1062

//go:embed schema.sql
var schemaSQL string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// OpenMySQL opens a pool for dsn. parseTime is always enabled since the
// journal scans DATETIME columns.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the journal tables when they are missing.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) SaveRecord(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT IGNORE INTO till_runs (run_id, created_at)
		VALUES (?, ?)`,
		entry.RunID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rec := entry.Record
	_, err = tx.ExecContext(ctx, `
		INSERT INTO till_records (run_id, seq, till_start, items_total, paid_total, change_due, outcome, change_list, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Sequence, rec.TillStart, rec.ItemsTotal, rec.PaidTotal, rec.ChangeDue,
		string(rec.Outcome), encodeChange(rec.Change), entry.CreatedAt,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
			return fmt.Errorf("%w: run %s seq %d", ErrDuplicateRecord, entry.RunID, entry.Sequence)
		}
		return fmt.Errorf("insert record: %w", err)
	}

	return tx.Commit()
}

// FinishRun upserts the run row, so runs with no journaled records are closed too.
func (m *MySQLAdapter) FinishRun(ctx context.Context, runID string, finalTotal int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO till_runs (run_id, final_total, created_at, finished_at)
		VALUES (?, ?, NOW(6), NOW(6))
		ON DUPLICATE KEY UPDATE final_total = VALUES(final_total), finished_at = VALUES(finished_at)`,
		runID, finalTotal,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListRecords(ctx context.Context, runID string) ([]domain.SummaryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT till_start, items_total, paid_total, change_due, outcome, change_list
		FROM till_records WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.SummaryRecord
	for rows.Next() {
		var (
			rec     domain.SummaryRecord
			outcome string
			change  string
		)
		if err := rows.Scan(&rec.TillStart, &rec.ItemsTotal, &rec.PaidTotal, &rec.ChangeDue, &outcome, &change); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		if rec.Change, err = decodeChange(change); err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func encodeChange(change []int) string {
	parts := make([]string, len(change))
	for i, d := range change {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeChange(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	change := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("change list %q: %w", s, err)
		}
		change[i] = d
	}
	return change, nil
}
