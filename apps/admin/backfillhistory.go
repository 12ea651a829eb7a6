package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/storage/database"
)

const backfillChangeReason = "initial history population"

// backfillHistory replays a CSV snapshot of a source table into its
// *_historical table as initial ('+') records.
//
// Batches that were fully backfilled by a previous run are skipped, so the
// command can be re-run after an interruption. A partially backfilled batch
// means a previous run died mid-transaction or the snapshot changed; that is
// not recoverable automatically and aborts the command.
func (cli *commandLine) backfillHistory(table, input string, batchSize int, sleep time.Duration) error {
	if batchSize < 1 {
		return errors.Errorf("batchsize must be positive, got %d", batchSize)
	}

	f, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "opening input file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return errors.Wrap(err, "reading CSV header")
	}
	idIdx := -1
	for i, column := range header {
		if column == "id" {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return errors.New("CSV header carries no id column")
	}

	ctx := context.Background()
	if err := cli.checkColumns(ctx, table, header); err != nil {
		return err
	}
	historicalTable := database.HistoricalTable(table)

	var batchNum int
	for {
		batch, err := readBatch(reader, batchSize)
		if err != nil {
			return errors.Wrap(err, "reading CSV rows")
		}
		if len(batch) == 0 {
			break
		}
		if batchNum > 0 {
			time.Sleep(sleep)
		}
		batchNum++

		ids := make([]string, 0, len(batch))
		for _, row := range batch {
			ids = append(ids, row[idIdx])
		}
		count, err := cli.backfiller.CountInitialHistory(ctx, historicalTable, ids)
		if err != nil {
			return err
		}
		if count == len(batch) {
			logger.Printf("batch %d: already backfilled, skipping", batchNum)
			continue
		}
		if count != 0 {
			return errors.Errorf(
				"batch %d: %d of %d rows already carry initial history; clean up %s before retrying",
				batchNum, count, len(batch), historicalTable)
		}

		if err := cli.backfiller.InsertInitialHistory(
			ctx, historicalTable, header, batch, time.Now().UTC(), backfillChangeReason,
		); err != nil {
			return err
		}
		logger.Printf("batch %d: backfilled %d rows", batchNum, len(batch))
	}
	return nil
}

// checkColumns verifies every CSV column exists on the source table, catching
// stale snapshots before any insert is attempted.
func (cli *commandLine) checkColumns(ctx context.Context, table string, header []string) error {
	columns, err := cli.backfiller.TableColumns(ctx, table)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(columns))
	for _, column := range columns {
		known[column] = true
	}
	for _, column := range header {
		if !known[column] {
			return errors.Errorf("CSV column %q does not exist on table %s", column, table)
		}
	}
	return nil
}

func readBatch(reader *csv.Reader, batchSize int) ([][]string, error) {
	batch := make([][]string, 0, batchSize)
	for len(batch) < batchSize {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, row)
	}
	return batch, nil
}
