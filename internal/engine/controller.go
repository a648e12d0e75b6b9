package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/sqlexec"
)

// Controller switches destination constraints and triggers on and off.
type Controller struct {
	dst    *schema.Destination
	logger *slog.Logger
}

func NewController(dst *schema.Destination, logger *slog.Logger) *Controller {
	return &Controller{dst: dst, logger: logger}
}

// SetConstraints walks constraint kinds in enable order (or its reverse when
// disabling), finishing one kind across every filtered table before the next.
// Constraints that were already disabled when the catalog was loaded are
// left as they are in both directions.
//
// Disabling stops at the first failure. Enabling keeps going so that one
// violated constraint does not leave the others off; failures are joined.
func (c *Controller) SetConstraints(ctx context.Context, enabled bool, filter []string) error {
	byKind := make(map[schema.ConstraintKind][]*schema.Constraint)
	for _, con := range c.dst.AllConstraints(filter) {
		if !con.Enabled {
			continue
		}
		byKind[con.Kind] = append(byKind[con.Kind], con)
	}

	var errs []error
	for _, kind := range schema.KindOrder(enabled) {
		constraints := byKind[kind]
		if len(constraints) == 0 {
			continue
		}
		c.logger.Debug("setting constraints", "kind", kind, "enabled", enabled, "count", len(constraints))
		for _, con := range constraints {
			stmt := c.dst.Dialect().ConstraintStatement(con.Table, con.Name, enabled)
			if _, err := sqlexec.Exec(ctx, c.dst.Conn(), stmt); err != nil {
				if !enabled {
					return err
				}
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetTriggers switches the enabled triggers of a single table, with the same
// failure policy as SetConstraints.
func (c *Controller) SetTriggers(ctx context.Context, enabled bool, table *schema.Table) error {
	var errs []error
	for _, trg := range table.Triggers {
		if !trg.Enabled {
			continue
		}
		stmt := c.dst.Dialect().TriggerStatement(trg.Name, enabled)
		if _, err := sqlexec.Exec(ctx, c.dst.Conn(), stmt); err != nil {
			if !enabled {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
