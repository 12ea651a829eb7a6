package database

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// HistoryBackfiller populates a model's `*_historical` table with initial
// records from a snapshot of the source table.
type HistoryBackfiller struct {
	db *sqlx.DB
}

func NewHistoryBackfiller(db *sqlx.DB) *HistoryBackfiller {
	return &HistoryBackfiller{db: db}
}

// table and column names end up interpolated into SQL; only plain
// identifiers are accepted.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdentifier(name string) error {
	if !validIdentifier.MatchString(name) {
		return errors.Errorf("invalid identifier %q", name)
	}
	return nil
}

// HistoricalTable derives the historical table's name: course_entitlement
// becomes course_entitlement_historical.
func HistoricalTable(table string) string {
	return table + "_historical"
}

// TableColumns returns the source table's column names in ordinal order.
func (b *HistoryBackfiller) TableColumns(ctx context.Context, table string) ([]string, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	var columns []string
	err := b.db.SelectContext(ctx, &columns, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "getting columns of %s", table)
	}
	if len(columns) == 0 {
		return nil, errors.Errorf("table %s has no columns", table)
	}
	return columns, nil
}

// CountInitialHistory counts how many of the given ids already carry an
// initial ('+') record in the historical table.
func (b *HistoryBackfiller) CountInitialHistory(ctx context.Context, historicalTable string, ids []string) (int, error) {
	if err := checkIdentifier(historicalTable); err != nil {
		return 0, err
	}
	query, args, err := sqlx.In(
		`SELECT COUNT(1) FROM `+historicalTable+` WHERE id IN (?) AND history_type = '+'`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "expanding history count query")
	}

	var count int
	if err := b.db.GetContext(ctx, &count, b.db.Rebind(query), args...); err != nil {
		return 0, errors.Wrapf(err, "counting initial history in %s", historicalTable)
	}
	return count, nil
}

// InsertInitialHistory inserts the rows into the historical table within one
// transaction, appending the history columns to each: the backfill date, the
// change reason, type '+' and a null history user.
func (b *HistoryBackfiller) InsertInitialHistory(
	ctx context.Context,
	historicalTable string,
	columns []string,
	rows [][]string,
	historyDate time.Time,
	changeReason string,
) error {
	if err := checkIdentifier(historicalTable); err != nil {
		return err
	}
	for _, column := range columns {
		if err := checkIdentifier(column); err != nil {
			return err
		}
	}

	placeholders := make([]string, len(columns)+4)
	for i := range placeholders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := `INSERT INTO ` + historicalTable + ` (` + strings.Join(columns, ", ") +
		`, history_date, history_change_reason, history_type, history_user_id) VALUES (` +
		strings.Join(placeholders, ", ") + `)`

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning history transaction")
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return errors.Errorf("row has %d values, want %d", len(row), len(columns))
		}
		args := make([]interface{}, 0, len(row)+4)
		for _, value := range row {
			args = append(args, value)
		}
		args = append(args, historyDate, changeReason, "+", nil)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "inserting history into %s", historicalTable)
		}
	}
	return errors.Wrap(tx.Commit(), "committing history transaction")
}
