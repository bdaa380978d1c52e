package querysql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
)

// Dialect selects the SQL flavor emitted by a Compiler.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Result columns of an aggregate statement.
//
// GroupColumn holds the JSON text of the group value, or NULL when the
// pipeline groups the whole collection. TotalColumn holds the count
// (integer) or sum (integer or real on SQLite, float8 on Postgres).
const (
	GroupColumn = "grp"
	TotalColumn = "total"
)

// Compiler compiles query IR for one dialect. It holds no state and is
// safe for concurrent use.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a Compiler for the given dialect.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Insert returns the statement inserting one record. Parameters are
// collection, id and the JSON document.
func (c *Compiler) Insert() string {
	if c.dialect == Postgres {
		return "INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3::jsonb)"
	}
	return "INSERT INTO records (collection, id, doc) VALUES (?, ?, ?)"
}

// Delete returns the statement removing every record of a collection.
// The only parameter is the collection.
func (c *Compiler) Delete() string {
	if c.dialect == Postgres {
		return "DELETE FROM records WHERE collection = $1"
	}
	return "DELETE FROM records WHERE collection = ?"
}

// Select compiles a filtered read of a collection. The statement returns
// one column, the JSON document, in insertion order.
func (c *Compiler) Select(collection string, filter query.Predicate) (string, []any, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return "", nil, err
	}
	b := &builder{dialect: c.dialect}

	var sb strings.Builder
	sb.WriteString("SELECT doc FROM records WHERE collection = ")
	sb.WriteString(b.bind(collection))
	if filter != nil {
		where, err := b.predicate(filter)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(where)
	}
	sb.WriteString(" ORDER BY seq ASC")
	return sb.String(), b.params, nil
}

// SelectOne compiles a read of the first matching record.
func (c *Compiler) SelectOne(collection string, filter query.Predicate) (string, []any, error) {
	sql, params, err := c.Select(collection, filter)
	if err != nil {
		return "", nil, err
	}
	return sql + " LIMIT 1", params, nil
}

// Aggregate compiles a pipeline over a collection.
//
// Groups come out in order of first appearance (MIN(seq)); each Sort stage
// becomes a leading ORDER BY key so later sorts take precedence, exactly
// as successive stable sorts would. A Sort after a Limit cannot be
// expressed as one statement and is rejected.
func (c *Compiler) Aggregate(collection string, pl query.Pipeline) (string, []any, error) {
	if err := query.ValidatePipeline(pl); err != nil {
		return "", nil, err
	}
	group := query.GroupOf(pl)
	b := &builder{dialect: c.dialect}

	key := b.groupKey(group.By)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(key.output)
	sb.WriteString(" AS " + GroupColumn + ", ")
	sb.WriteString(b.accumulator(group.Sum))
	sb.WriteString(" AS " + TotalColumn)
	sb.WriteString(" FROM records WHERE collection = ")
	sb.WriteString(b.bind(collection))
	sb.WriteString(" GROUP BY ")
	sb.WriteString(key.grouping)

	var orderBy []string
	limit := 0
	for _, st := range pl[1:] {
		switch stage := st.(type) {
		case query.Sort:
			if limit > 0 {
				return "", nil, fmt.Errorf("compile pipeline: sort after limit is not supported")
			}
			dir := " ASC"
			if stage.Descending {
				dir = " DESC"
			}
			var keys []string
			if stage.By == query.GroupKey {
				for _, k := range key.ordering {
					keys = append(keys, k+dir)
				}
			} else {
				keys = []string{TotalColumn + dir}
			}
			orderBy = append(keys, orderBy...)
		case query.Limit:
			if limit == 0 || stage.N < limit {
				limit = stage.N
			}
		}
	}
	orderBy = append(orderBy, "MIN(seq) ASC")

	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(orderBy, ", "))
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
	return sb.String(), b.params, nil
}

// builder accumulates bound parameters and renders placeholders.
type builder struct {
	dialect Dialect
	params  []any
}

func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	if b.dialect == Postgres {
		return "$" + strconv.Itoa(len(b.params))
	}
	return "?"
}

// path binds the location of a top-level field.
func (b *builder) path(field string) string {
	if b.dialect == Postgres {
		return b.bind(field) + "::text"
	}
	return b.bind("$." + field)
}

// text reads a field as SQL text (strings only are meaningful).
func (b *builder) text(field string) string {
	if b.dialect == Postgres {
		return "(doc ->> " + b.path(field) + ")"
	}
	return "json_extract(doc, " + b.path(field) + ")"
}

func (b *builder) isText(field string) string {
	if b.dialect == Postgres {
		return "jsonb_typeof(doc -> " + b.path(field) + ") = 'string'"
	}
	return "json_type(doc, " + b.path(field) + ") = 'text'"
}

func (b *builder) isNumber(field string) string {
	if b.dialect == Postgres {
		return "jsonb_typeof(doc -> " + b.path(field) + ") = 'number'"
	}
	return "json_type(doc, " + b.path(field) + ") IN ('integer', 'real')"
}

func (b *builder) predicate(p query.Predicate) (string, error) {
	switch pred := p.(type) {
	case query.Eq:
		return b.eq(pred)
	case query.Contains:
		if b.dialect == Postgres {
			return fmt.Sprintf("(%s AND strpos(lower(%s), lower(%s::text)) > 0)",
				b.isText(pred.Field), b.text(pred.Field), b.bind(pred.Substring)), nil
		}
		return fmt.Sprintf("(%s AND instr(ulower(%s), ulower(%s)) > 0)",
			b.isText(pred.Field), b.text(pred.Field), b.bind(pred.Substring)), nil
	case query.Gte:
		return b.gte(pred)
	case query.HasSuffix:
		if pred.Suffix == "" {
			return b.isText(pred.Field), nil
		}
		if b.dialect == Postgres {
			return fmt.Sprintf("(%s AND right(%s, char_length(%s::text)) = %s::text)",
				b.isText(pred.Field), b.text(pred.Field), b.bind(pred.Suffix), b.bind(pred.Suffix)), nil
		}
		return fmt.Sprintf("(%s AND substr(%s, -length(%s)) = %s)",
			b.isText(pred.Field), b.text(pred.Field), b.bind(pred.Suffix), b.bind(pred.Suffix)), nil
	case query.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		for _, child := range pred.Predicates {
			sql, err := b.predicate(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) eq(pred query.Eq) (string, error) {
	if pred.Value == nil {
		if b.dialect == Postgres {
			return "COALESCE(jsonb_typeof(doc -> " + b.path(pred.Field) + "), 'null') = 'null'", nil
		}
		return "json_extract(doc, " + b.path(pred.Field) + ") IS NULL", nil
	}

	if b.dialect == Postgres {
		lit, err := jsonLiteral(pred.Value)
		if err != nil {
			return "", err
		}
		return "doc -> " + b.path(pred.Field) + " = " + b.bind(lit) + "::jsonb", nil
	}

	switch v := doc.Normalize(pred.Value).(type) {
	case string:
		return fmt.Sprintf("(%s AND %s = %s)", b.isText(pred.Field), b.text(pred.Field), b.bind(v)), nil
	case bool:
		return fmt.Sprintf("json_type(doc, %s) = '%t'", b.path(pred.Field), v), nil
	case int64, float64:
		return fmt.Sprintf("(%s AND json_extract(doc, %s) = %s)", b.isNumber(pred.Field), b.path(pred.Field), b.bind(v)), nil
	default:
		return "", fmt.Errorf("unsupported Eq value type: %T", pred.Value)
	}
}

func (b *builder) gte(pred query.Gte) (string, error) {
	switch v := doc.Normalize(pred.Value).(type) {
	case string:
		if b.dialect == Postgres {
			return fmt.Sprintf(`(%s AND %s COLLATE "C" >= %s::text)`, b.isText(pred.Field), b.text(pred.Field), b.bind(v)), nil
		}
		return fmt.Sprintf("(%s AND %s >= %s)", b.isText(pred.Field), b.text(pred.Field), b.bind(v)), nil
	case int64, float64:
		if b.dialect == Postgres {
			lit, err := jsonLiteral(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s AND doc -> %s >= %s::jsonb)", b.isNumber(pred.Field), b.path(pred.Field), b.bind(lit)), nil
		}
		return fmt.Sprintf("(%s AND json_extract(doc, %s) >= %s)", b.isNumber(pred.Field), b.path(pred.Field), b.bind(v)), nil
	default:
		return "", fmt.Errorf("unsupported Gte value type: %T", pred.Value)
	}
}

// groupKey holds the three renderings of a group key: the selected JSON
// text, the GROUP BY expression and the ORDER BY keys for sorting by it.
type groupKey struct {
	output   string
	grouping string
	ordering []string
}

// groupKey renders the grouping expression. Missing fields and JSON null
// fall into the same group, like the in-memory evaluator. Sorting by key
// orders null before numbers before strings.
func (b *builder) groupKey(field string) groupKey {
	if field == "" {
		if b.dialect == Postgres {
			return groupKey{output: "NULL::text", grouping: GroupColumn, ordering: []string{GroupColumn}}
		}
		return groupKey{output: "NULL", grouping: GroupColumn, ordering: []string{GroupColumn}}
	}

	if b.dialect == Postgres {
		// Placeholders are numbered, so the expression can be repeated
		// verbatim wherever Postgres needs it.
		g := "COALESCE(doc -> " + b.path(field) + ", 'null'::jsonb)"
		return groupKey{
			output:   g + "::text",
			grouping: g,
			ordering: []string{
				"CASE jsonb_typeof(" + g + ") WHEN 'null' THEN 0 WHEN 'number' THEN 1 WHEN 'string' THEN 2 ELSE 3 END",
				"CASE WHEN jsonb_typeof(" + g + ") = 'number' THEN (" + g + " #>> '{}')::float8 END",
				"(" + g + ` #>> '{}') COLLATE "C"`,
			},
		}
	}

	// json_extract over the JSON text yields SQL NULL, numbers and text,
	// which SQLite already orders null < numeric < text.
	return groupKey{
		output:   "COALESCE(doc -> " + b.path(field) + ", 'null')",
		grouping: GroupColumn,
		ordering: []string{"json_extract(" + GroupColumn + ", '$')"},
	}
}

func (b *builder) accumulator(sum string) string {
	if sum == "" {
		return "COUNT(*)"
	}
	if b.dialect == Postgres {
		return fmt.Sprintf("SUM(CASE WHEN %s THEN (%s)::float8 ELSE 0 END)", b.isNumber(sum), b.text(sum))
	}
	return fmt.Sprintf("SUM(CASE WHEN %s THEN json_extract(doc, %s) ELSE 0 END)", b.isNumber(sum), b.path(sum))
}

// jsonLiteral encodes a scalar as JSON text for a jsonb comparison.
func jsonLiteral(v any) (string, error) {
	raw, err := json.Marshal(doc.Normalize(v))
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(raw), nil
}
