package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
)

// ErrorPolicy decides what happens to the remaining tables after one fails.
type ErrorPolicy string

const (
	ContinueOnError ErrorPolicy = "continue"
	AbortOnError    ErrorPolicy = "abort"
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContinueOnError:
		return ContinueOnError, nil
	case AbortOnError:
		return AbortOnError, nil
	default:
		return "", fmt.Errorf("unknown error policy %q (valid: continue, abort)", s)
	}
}

type Options struct {
	BatchSize  int
	Tables     []string // optional name filter, case-insensitive
	OnError    ErrorPolicy
	OnProgress ProgressFunc
}

// Runner drives a whole migration run.
type Runner struct {
	src        *schema.Source
	dst        *schema.Destination
	controller *Controller
	copier     *Copier
	opts       Options
	logger     *slog.Logger
}

func NewRunner(src *schema.Source, dst *schema.Destination, opts Options, logger *slog.Logger) *Runner {
	if opts.OnError == "" {
		opts.OnError = ContinueOnError
	}
	ctrl := NewController(dst, logger)
	copier := NewCopier(src, dst, ctrl, opts.BatchSize, logger)
	copier.OnProgress = opts.OnProgress
	return &Runner{
		src:        src,
		dst:        dst,
		controller: ctrl,
		copier:     copier,
		opts:       opts,
		logger:     logger,
	}
}

// ResolveTables returns the uppercase names of source tables that also exist
// in the destination, in source discovery order, and the source tables that
// have no destination counterpart.
func (r *Runner) ResolveTables(ctx context.Context) (plan []string, missing []string, err error) {
	names, err := r.src.ListTables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list source tables: %w", err)
	}

	var wanted map[string]bool
	if len(r.opts.Tables) > 0 {
		wanted = make(map[string]bool, len(r.opts.Tables))
		for _, t := range r.opts.Tables {
			wanted[strings.ToUpper(t)] = true
		}
	}

	found := make(map[string]bool, len(names))
	for _, name := range names {
		upper := strings.ToUpper(name)
		found[upper] = true
		if wanted != nil && !wanted[upper] {
			continue
		}
		if _, ok := r.dst.Table(upper); !ok {
			missing = append(missing, name)
			continue
		}
		plan = append(plan, upper)
	}
	for _, t := range r.opts.Tables {
		if !found[strings.ToUpper(t)] {
			r.logger.Warn("no source table matches filter, ignoring", "table", t)
		}
	}
	if wanted != nil && len(plan) == 0 {
		return nil, missing, fmt.Errorf("no matching tables found for inputs: %v", r.opts.Tables)
	}
	return plan, missing, nil
}

// Run disables constraints across the resolved table set, copies each table
// in turn and re-enables the constraints on every exit path, including
// cancellation.
func (r *Runner) Run(ctx context.Context) (results []schema.CopyResult, err error) {
	plan, missing, err := r.ResolveTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		r.logger.Warn("no destination table, skipping", "table", name)
		results = append(results, schema.CopyResult{TableName: strings.ToUpper(name), Status: schema.StatusSkipped})
	}
	if len(plan) == 0 {
		r.logger.Warn("no source table has a destination counterpart")
		return results, nil
	}

	r.logger.Info("disabling constraints", "tables", len(plan))
	if err := r.controller.SetConstraints(ctx, false, plan); err != nil {
		// Some constraints may already be off.
		return results, errors.Join(err, r.enableConstraints(ctx, plan))
	}
	defer func() {
		if eerr := r.enableConstraints(ctx, plan); eerr != nil {
			err = errors.Join(err, eerr)
		}
	}()

	var copyErrs []error
	for i, name := range plan {
		r.logger.Info("copying table", "table", name, "position", fmt.Sprintf("%d/%d", i+1, len(plan)))
		res, cerr := r.copier.Copy(ctx, name)
		results = append(results, res)
		if cerr == nil {
			continue
		}
		r.logger.Error("table copy failed", "table", name, "rows", res.Copied, "error", cerr)
		copyErrs = append(copyErrs, cerr)
		if r.opts.OnError == AbortOnError || ctx.Err() != nil {
			for _, rest := range plan[i+1:] {
				results = append(results, schema.CopyResult{TableName: rest, Status: schema.StatusNotRun})
			}
			break
		}
	}
	return results, errors.Join(copyErrs...)
}

func (r *Runner) enableConstraints(ctx context.Context, plan []string) error {
	r.logger.Info("enabling constraints", "tables", len(plan))
	return r.controller.SetConstraints(context.WithoutCancel(ctx), true, plan)
}

// TablePlan describes what a run would do to one table without moving data.
type TablePlan struct {
	Table       string
	SelectSQL   string
	InsertSQL   string
	Unmapped    []string
	Triggers    int
	Constraints map[schema.ConstraintKind]int
}

// Describe resolves the run and renders the statements each table would use.
func (r *Runner) Describe(ctx context.Context) ([]TablePlan, []string, error) {
	plan, missing, err := r.ResolveTables(ctx)
	if err != nil {
		return nil, nil, err
	}
	d := r.dst.Dialect()
	out := make([]TablePlan, 0, len(plan))
	for _, name := range plan {
		table, _ := r.dst.Table(name)
		codec := NewCodec(table, r.src.Dialect(), d, r.logger)
		placeholders := dialect.GeneratePlaceholders(len(table.Columns), d.Placeholder)
		tp := TablePlan{
			Table:       table.Name,
			SelectSQL:   r.src.Dialect().SelectQuery(table.SourceName(), codec.SelectExprs()),
			InsertSQL:   d.InsertQuery(table.Name, table.ColumnNames(), placeholders),
			Unmapped:    codec.UnmappedColumns(),
			Triggers:    len(table.Triggers),
			Constraints: make(map[schema.ConstraintKind]int),
		}
		for _, con := range table.Constraints {
			tp.Constraints[con.Kind]++
		}
		out = append(out, tp)
	}
	return out, missing, nil
}
