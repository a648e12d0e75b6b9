package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/dialect"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"
)

// Layouts accepted for date/time values that reach the codec as text
// (MySQL without parseTime, PostgreSQL text casts).
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// Value is one slot of an insert's VALUES list. It is either a literal or a
// bound parameter, optionally passed through a constructor function.
type Value struct {
	Literal     string
	Bind        bool
	Arg         any
	Constructor string
}

// IsNull reports whether v is the NULL literal.
func (v Value) IsNull() bool {
	return !v.Bind && v.Literal == dialect.NullLiteral
}

var nullValue = Value{Literal: dialect.NullLiteral}

// Codec translates between source values and destination SQL for one table.
type Codec struct {
	table  *schema.Table
	src    dialect.Dialect
	dst    *dialect.OracleDialect
	logger *slog.Logger
	warned map[string]bool
}

func NewCodec(table *schema.Table, src dialect.Dialect, dst *dialect.OracleDialect, logger *slog.Logger) *Codec {
	return &Codec{
		table:  table,
		src:    src,
		dst:    dst,
		logger: logger,
		warned: make(map[string]bool),
	}
}

// SelectExprs returns the source select list, one expression per destination column.
func (c *Codec) SelectExprs() []string {
	exprs := make([]string, len(c.table.Columns))
	for i, col := range c.table.Columns {
		exprs[i] = c.SelectExpr(col)
	}
	return exprs
}

func (c *Codec) SelectExpr(col *schema.Column) string {
	name := col.SourceName()
	if col.Type.Kind != schema.KindNamed {
		return name
	}
	if col.Type.Name == dialect.GeometryType {
		return c.src.GeometryText(name)
	}
	c.warnUnmapped(col, "selecting null")
	return dialect.NullLiteral + " as " + name
}

// UnmappedColumns lists columns whose named type has no encoding.
func (c *Codec) UnmappedColumns() []string {
	var out []string
	for _, col := range c.table.Columns {
		if col.Type.Kind == schema.KindNamed && col.Type.Name != dialect.GeometryType {
			out = append(out, col.Name)
		}
	}
	return out
}

// Encode maps a raw source value to its destination form. Every kind has a
// branch; KindOther and unmapped named types are explicit fallbacks.
func (c *Codec) Encode(col *schema.Column, raw any) Value {
	if isEmpty(raw) {
		return nullValue
	}

	switch col.Type.Kind {
	case schema.KindCharacter:
		return Value{Literal: c.dst.QuoteLiteral(asText(raw))}

	case schema.KindText:
		// Bound as a string: a []byte would go over as RAW and land hex-encoded.
		return Value{Bind: true, Arg: asText(raw)}

	case schema.KindDateTime:
		return c.encodeDate(raw)

	case schema.KindNamed:
		if col.Type.Name == dialect.GeometryType {
			return Value{Bind: true, Arg: asText(raw), Constructor: dialect.GeometryType}
		}
		c.warnUnmapped(col, "inserting null")
		return nullValue

	case schema.KindNumeric:
		if b, ok := raw.([]byte); ok {
			return Value{Bind: true, Arg: string(b)}
		}
		return Value{Bind: true, Arg: raw}

	case schema.KindOther:
	}
	return Value{Bind: true, Arg: raw}
}

func (c *Codec) encodeDate(raw any) Value {
	if t, ok := raw.(time.Time); ok {
		if t.IsZero() {
			return nullValue
		}
		return Value{Literal: c.dst.DateLiteral(t)}
	}
	text := asText(raw)
	if strings.HasPrefix(text, "0000-00-00") {
		return nullValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Value{Literal: c.dst.DateLiteral(t)}
		}
	}
	// Let Oracle reject it with the statement in the error.
	return Value{Literal: c.dst.DateTextLiteral(text)}
}

// EncodeRow encodes a source row into VALUES expressions and bind arguments,
// numbering placeholders in column order.
func (c *Codec) EncodeRow(row map[string]any) ([]string, []any) {
	exprs := make([]string, len(c.table.Columns))
	var args []any
	for i, col := range c.table.Columns {
		v := c.Encode(col, row[col.SourceName()])
		if !v.Bind {
			exprs[i] = v.Literal
			continue
		}
		ph := c.dst.Placeholder(len(args))
		args = append(args, v.Arg)
		if v.Constructor != "" {
			ph = fmt.Sprintf("%s(%s)", v.Constructor, ph)
		}
		exprs[i] = ph
	}
	return exprs, args
}

func (c *Codec) warnUnmapped(col *schema.Column, action string) {
	key := action + "/" + col.Name
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	c.logger.Warn("unknown named type/object column type, "+action,
		"table", c.table.Name,
		"column", col.Name,
		"type", col.Type.Name)
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}

func asText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}
