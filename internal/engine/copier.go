package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
	"github.com/dustin/go-humanize"
)

// DefaultBatchSize is the number of rows committed per destination transaction.
const DefaultBatchSize = 500

// Stats is a throughput snapshot for one table.
type Stats struct {
	Table   string
	Rows    int
	Elapsed time.Duration
	Final   bool
}

func (s Stats) RowsPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Rows) / secs
}

// ProgressFunc receives a Stats after every committed batch and once at the
// end of each table.
type ProgressFunc func(Stats)

// Copier moves one table at a time from the source into the destination.
type Copier struct {
	src        *schema.Source
	dst        *schema.Destination
	controller *Controller
	batchSize  int
	logger     *slog.Logger

	OnProgress ProgressFunc
}

func NewCopier(src *schema.Source, dst *schema.Destination, controller *Controller, batchSize int, logger *slog.Logger) *Copier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Copier{
		src:        src,
		dst:        dst,
		controller: controller,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Copy replaces the destination contents of name with the source rows.
// Triggers are off for the whole load and are switched back on whatever
// happens. A failure loses at most the batch in flight.
func (c *Copier) Copy(ctx context.Context, name string) (res schema.CopyResult, err error) {
	table, ok := c.dst.Table(name)
	if !ok {
		c.logger.Warn("no destination table, skipping", "table", name)
		return schema.CopyResult{TableName: strings.ToUpper(name), Status: schema.StatusSkipped}, nil
	}
	log := c.logger.With("table", table.Name)
	res.TableName = table.Name
	start := time.Now()

	defer func() {
		res.Elapsed = time.Since(start)
		res.Status = schema.StatusOK
		if err != nil {
			res.Status = schema.StatusFailed
			res.ErrorMsg = err.Error()
		}
	}()

	log.Info("disabling triggers")
	enableTriggers := func() error {
		log.Info("enabling triggers")
		if terr := c.controller.SetTriggers(context.WithoutCancel(ctx), true, table); terr != nil {
			return fmt.Errorf("enable triggers on %s: %w", table.Name, terr)
		}
		return nil
	}
	if err := c.controller.SetTriggers(ctx, false, table); err != nil {
		// Triggers before the failing one are already off.
		return res, errors.Join(fmt.Errorf("disable triggers on %s: %w", table.Name, err), enableTriggers())
	}
	defer func() {
		if terr := enableTriggers(); terr != nil {
			err = errors.Join(err, terr)
		}
	}()

	log.Info("clearing data")
	if err := clearTable(ctx, c.dst, table); err != nil {
		return res, err
	}

	log.Info("copying data")
	if err := c.load(ctx, table, &res, start); err != nil {
		return res, fmt.Errorf("copy %s failed after %d rows: %w", table.Name, res.Copied, err)
	}
	return res, nil
}

func (c *Copier) load(ctx context.Context, table *schema.Table, res *schema.CopyResult, start time.Time) error {
	d := c.dst.Dialect()
	codec := NewCodec(table, c.src.Dialect(), d, c.logger)
	cols := table.ColumnNames()

	cur, err := c.src.OpenCursor(ctx, table.SourceName(), codec.SelectExprs())
	if err != nil {
		return err
	}
	defer cur.Close()

	var tx *sql.Tx
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	pending := 0
	for cur.Next() {
		if tx == nil {
			if tx, err = c.dst.Conn().BeginTx(ctx, nil); err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}
		}
		exprs, args := codec.EncodeRow(cur.Row())
		if _, err := sqlexec.Exec(ctx, tx, d.InsertQuery(table.Name, cols, exprs), args...); err != nil {
			return err
		}
		res.Copied++
		pending++

		if pending == c.batchSize {
			if err := tx.Commit(); err != nil {
				tx = nil
				return fmt.Errorf("commit: %w", err)
			}
			tx = nil
			pending = 0
			res.Commits++
			c.report(Stats{Table: table.Name, Rows: res.Copied, Elapsed: time.Since(start)})
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			tx = nil
			return fmt.Errorf("commit: %w", err)
		}
		tx = nil
		res.Commits++
	}
	c.report(Stats{Table: table.Name, Rows: res.Copied, Elapsed: time.Since(start), Final: true})
	return nil
}

func (c *Copier) report(s Stats) {
	c.logger.Info(fmt.Sprintf("processed %s rows (%.2f/s)", humanize.Comma(int64(s.Rows)), s.RowsPerSecond()),
		"table", s.Table)
	if c.OnProgress != nil {
		c.OnProgress(s)
	}
}
