package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
)

// clearTable deletes every destination row of table. It runs outside the
// batch transactions so an empty source still leaves an empty table behind.
func clearTable(ctx context.Context, dst *schema.Destination, table *schema.Table) error {
	_, err := sqlexec.Exec(ctx, dst.Conn(), dst.Dialect().DeleteQuery(table.Name))
	return err
}

// ClearTables empties the named destination tables (all of them when names
// is empty) with constraints disabled for the duration and triggers
// disabled per table. Constraints are re-enabled on every exit path.
func ClearTables(ctx context.Context, dst *schema.Destination, names []string, logger *slog.Logger) (cleared int, err error) {
	var tables []*schema.Table
	if len(names) == 0 {
		tables = dst.Tables()
	} else {
		for _, name := range names {
			t, ok := dst.Table(name)
			if !ok {
				logger.Warn("no destination table, skipping", "table", name)
				continue
			}
			tables = append(tables, t)
		}
	}
	filter := make([]string, len(tables))
	for i, t := range tables {
		filter[i] = t.Name
	}

	ctrl := NewController(dst, logger)
	logger.Info("disabling constraints", "tables", len(tables))
	if err := ctrl.SetConstraints(ctx, false, filter); err != nil {
		return 0, errors.Join(err, ctrl.SetConstraints(context.WithoutCancel(ctx), true, filter))
	}
	defer func() {
		logger.Info("enabling constraints", "tables", len(tables))
		if eerr := ctrl.SetConstraints(context.WithoutCancel(ctx), true, filter); eerr != nil {
			err = errors.Join(err, eerr)
		}
	}()

	for _, t := range tables {
		if err := clearOne(ctx, dst, ctrl, t); err != nil {
			return cleared, err
		}
		cleared++
		if cleared%5 == 0 || cleared == len(tables) {
			logger.Info(fmt.Sprintf("cleaned %d/%d tables", cleared, len(tables)))
		}
	}
	return cleared, nil
}

func clearOne(ctx context.Context, dst *schema.Destination, ctrl *Controller, t *schema.Table) (err error) {
	if err := ctrl.SetTriggers(ctx, false, t); err != nil {
		return errors.Join(err, ctrl.SetTriggers(context.WithoutCancel(ctx), true, t))
	}
	defer func() {
		if terr := ctrl.SetTriggers(context.WithoutCancel(ctx), true, t); terr != nil {
			err = errors.Join(err, terr)
		}
	}()
	return clearTable(ctx, dst, t)
}
