package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownConstraintKind aborts catalog loading; the run cannot order
// constraints it does not understand.
var ErrUnknownConstraintKind = errors.New("unknown constraint type")

type Table struct {
	Name        string // uppercase destination name
	Columns     []*Column
	Constraints []*Constraint
	Triggers    []*Trigger
}

// ColumnNames returns the destination column names in column order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SourceName is the name the table is read under on the source side.
func (t *Table) SourceName() string {
	return strings.ToLower(t.Name)
}

type Column struct {
	Name      string
	Type      Type
	Nullable  bool
	Precision int
	Scale     int
	CharSize  int
	DataSize  int
}

// SourceName is the lowercase key the column is read and looked up under.
func (c *Column) SourceName() string {
	return strings.ToLower(c.Name)
}

// Kind is the storage classification that drives value encoding.
type Kind int

const (
	KindOther Kind = iota
	KindCharacter
	KindDateTime
	KindNumeric
	KindNamed // object type identified by Type.Name
	KindText  // CLOB, NCLOB, LONG: character data too large for a literal
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindDateTime:
		return "datetime"
	case KindNumeric:
		return "numeric"
	case KindNamed:
		return "named"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Type is a column type tag. Name is only set for KindNamed and holds the
// OWNER.TYPE string, e.g. MDSYS.SDO_GEOMETRY.
type Type struct {
	Kind Kind
	Name string
}

func (t Type) String() string {
	if t.Kind == KindNamed {
		return t.Name
	}
	return t.Kind.String()
}

// ParseOracleType classifies a user_tab_columns data_type / data_type_owner pair.
func ParseOracleType(dataType, owner string) Type {
	dt := strings.ToUpper(strings.TrimSpace(dataType))
	if owner != "" {
		return Type{Kind: KindNamed, Name: strings.ToUpper(owner) + "." + dt}
	}
	switch {
	case dt == "CHAR" || dt == "NCHAR" || dt == "VARCHAR2" || dt == "NVARCHAR2" || dt == "VARCHAR":
		return Type{Kind: KindCharacter}
	case dt == "CLOB" || dt == "NCLOB" || dt == "LONG":
		return Type{Kind: KindText}
	case dt == "DATE" || strings.HasPrefix(dt, "TIMESTAMP"):
		return Type{Kind: KindDateTime}
	case dt == "NUMBER" || dt == "FLOAT" || dt == "INTEGER" || dt == "BINARY_FLOAT" || dt == "BINARY_DOUBLE":
		return Type{Kind: KindNumeric}
	default:
		return Type{Kind: KindOther}
	}
}

type ConstraintKind int

const (
	Check ConstraintKind = iota
	PrimaryKey
	ForeignKey
)

// EnableOrder is the order constraint kinds are enabled in. Disabling walks
// it backwards.
var EnableOrder = []ConstraintKind{Check, PrimaryKey, ForeignKey}

// KindOrder returns the kind sequence for enabling or disabling.
func KindOrder(enable bool) []ConstraintKind {
	if enable {
		return EnableOrder
	}
	order := make([]ConstraintKind, len(EnableOrder))
	for i, k := range EnableOrder {
		order[len(EnableOrder)-1-i] = k
	}
	return order
}

func (k ConstraintKind) String() string {
	switch k {
	case Check:
		return "check"
	case PrimaryKey:
		return "primary_key"
	case ForeignKey:
		return "foreign_key"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// ParseConstraintKind maps an Oracle user_constraints.constraint_type code.
func ParseConstraintKind(code string) (ConstraintKind, error) {
	switch code {
	case "C":
		return Check, nil
	case "P":
		return PrimaryKey, nil
	case "R":
		return ForeignKey, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownConstraintKind, code)
	}
}

// Constraint and Trigger carry the status they had when the catalog was
// loaded. Only enabled ones are switched off and back on.
type Constraint struct {
	Name    string
	Table   string // owning table name, resolved through the catalog
	Kind    ConstraintKind
	Enabled bool
}

type Trigger struct {
	Name    string
	Table   string
	Enabled bool
}

// StatusEnabled is the user_constraints / user_triggers status of an active object.
const StatusEnabled = "ENABLED"

// CopyResult is one row of the run report.
type CopyResult struct {
	TableName string
	Copied    int
	Commits   int
	Elapsed   time.Duration
	Status    string
	ErrorMsg  string
}

const (
	StatusOK       = "OK"
	StatusSkipped  = "SKIPPED"
	StatusFailed   = "FAILED"
	StatusNotRun   = "NOT_RUN"
	StatusVerified = "VERIFIED_OK"
)
