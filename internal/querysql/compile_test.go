package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/query"
)

func TestSelect_SQLite(t *testing.T) {
	c := NewCompiler(SQLite)

	sql, params, err := c.Select("orders", query.Eq{Field: "status", Value: "paid"})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT doc FROM records WHERE collection = ? AND (json_type(doc, ?) = 'text' AND json_extract(doc, ?) = ?) ORDER BY seq ASC",
		sql)
	assert.Equal(t, []any{"orders", "$.status", "$.status", "paid"}, params)
	assert.NotContains(t, sql, "paid")
}

func TestSelect_Postgres(t *testing.T) {
	c := NewCompiler(Postgres)

	sql, params, err := c.Select("orders", query.Eq{Field: "status", Value: "paid"})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT doc FROM records WHERE collection = $1 AND doc -> $2::text = $3::jsonb ORDER BY seq ASC",
		sql)
	assert.Equal(t, []any{"orders", "status", `"paid"`}, params)
}

func TestSelect_NoFilter(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres} {
		t.Run(d.String(), func(t *testing.T) {
			sql, params, err := NewCompiler(d).Select("classes", nil)
			require.NoError(t, err)
			assert.Contains(t, sql, "ORDER BY seq ASC")
			assert.NotContains(t, sql, " AND ")
			assert.Equal(t, []any{"classes"}, params)
		})
	}
}

func TestSelectOne_AddsLimit(t *testing.T) {
	sql, _, err := NewCompiler(SQLite).SelectOne("clients", query.Contains{Field: "name", Substring: "priya"})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY seq ASC LIMIT 1")
	assert.Contains(t, sql, "instr(ulower(json_extract(doc, ?)), ulower(?)) > 0")
}

func TestSelect_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		pred       query.Predicate
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "sqlite eq nil",
			dialect:    SQLite,
			pred:       query.Eq{Field: "status", Value: nil},
			wantSQL:    "json_extract(doc, ?) IS NULL",
			wantParams: []any{"$.status"},
		},
		{
			name:       "sqlite eq bool",
			dialect:    SQLite,
			pred:       query.Eq{Field: "present", Value: false},
			wantSQL:    "json_type(doc, ?) = 'false'",
			wantParams: []any{"$.present"},
		},
		{
			name:       "sqlite eq number",
			dialect:    SQLite,
			pred:       query.Eq{Field: "amount", Value: 3000},
			wantSQL:    "(json_type(doc, ?) IN ('integer', 'real') AND json_extract(doc, ?) = ?)",
			wantParams: []any{"$.amount", "$.amount", int64(3000)},
		},
		{
			name:       "sqlite gte string",
			dialect:    SQLite,
			pred:       query.Gte{Field: "start_time", Value: "2026-10-18T09:00:00"},
			wantSQL:    "(json_type(doc, ?) = 'text' AND json_extract(doc, ?) >= ?)",
			wantParams: []any{"$.start_time", "$.start_time", "2026-10-18T09:00:00"},
		},
		{
			name:       "sqlite suffix",
			dialect:    SQLite,
			pred:       query.HasSuffix{Field: "dob", Suffix: "-10-18"},
			wantSQL:    "(json_type(doc, ?) = 'text' AND substr(json_extract(doc, ?), -length(?)) = ?)",
			wantParams: []any{"$.dob", "$.dob", "-10-18", "-10-18"},
		},
		{
			name:       "sqlite empty suffix",
			dialect:    SQLite,
			pred:       query.HasSuffix{Field: "dob"},
			wantSQL:    "json_type(doc, ?) = 'text'",
			wantParams: []any{"$.dob"},
		},
		{
			name:       "postgres eq nil",
			dialect:    Postgres,
			pred:       query.Eq{Field: "status", Value: nil},
			wantSQL:    "COALESCE(jsonb_typeof(doc -> $2::text), 'null') = 'null'",
			wantParams: []any{"status"},
		},
		{
			name:       "postgres eq bool",
			dialect:    Postgres,
			pred:       query.Eq{Field: "present", Value: true},
			wantSQL:    "doc -> $2::text = $3::jsonb",
			wantParams: []any{"present", "true"},
		},
		{
			name:       "postgres contains",
			dialect:    Postgres,
			pred:       query.Contains{Field: "name", Substring: "Priya"},
			wantSQL:    "(jsonb_typeof(doc -> $2::text) = 'string' AND strpos(lower((doc ->> $3::text)), lower($4::text)) > 0)",
			wantParams: []any{"name", "name", "Priya"},
		},
		{
			name:       "postgres gte string",
			dialect:    Postgres,
			pred:       query.Gte{Field: "created_at", Value: "2026-10-01"},
			wantSQL:    `(jsonb_typeof(doc -> $2::text) = 'string' AND (doc ->> $3::text) COLLATE "C" >= $4::text)`,
			wantParams: []any{"created_at", "created_at", "2026-10-01"},
		},
		{
			name:       "postgres gte number",
			dialect:    Postgres,
			pred:       query.Gte{Field: "amount", Value: 2.5},
			wantSQL:    "(jsonb_typeof(doc -> $2::text) = 'number' AND doc -> $3::text >= $4::jsonb)",
			wantParams: []any{"amount", "amount", "2.5"},
		},
		{
			name:       "postgres suffix",
			dialect:    Postgres,
			pred:       query.HasSuffix{Field: "dob", Suffix: "-10-18"},
			wantSQL:    "(jsonb_typeof(doc -> $2::text) = 'string' AND right((doc ->> $3::text), char_length($4::text)) = $5::text)",
			wantParams: []any{"dob", "dob", "-10-18", "-10-18"},
		},
		{
			name:    "sqlite and",
			dialect: SQLite,
			pred: query.And{Predicates: []query.Predicate{
				query.Eq{Field: "instructor", Value: "Anita"},
				query.Eq{Field: "status", Value: "completed"},
			}},
			wantSQL: "((json_type(doc, ?) = 'text' AND json_extract(doc, ?) = ?) AND (json_type(doc, ?) = 'text' AND json_extract(doc, ?) = ?))",
			wantParams: []any{
				"$.instructor", "$.instructor", "Anita",
				"$.status", "$.status", "completed",
			},
		},
		{
			name:       "empty and",
			dialect:    SQLite,
			pred:       query.And{},
			wantSQL:    "1 = 1",
			wantParams: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := NewCompiler(tc.dialect).Select("c", tc.pred)
			require.NoError(t, err)
			assert.Contains(t, sql, " AND "+tc.wantSQL+" ORDER BY seq ASC")
			assert.Equal(t, append([]any{"c"}, tc.wantParams...), params)
		})
	}
}

func TestSelect_RejectsInvalidField(t *testing.T) {
	_, _, err := NewCompiler(SQLite).Select("clients", query.Eq{Field: "name') OR 1=1 --", Value: "x"})
	require.Error(t, err)

	var ve *query.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAggregate_SQLite(t *testing.T) {
	c := NewCompiler(SQLite)

	t.Run("count sorted and limited", func(t *testing.T) {
		sql, params, err := c.Aggregate("orders", query.Pipeline{
			query.Group{By: "service_name", Into: "count"},
			query.Sort{By: "count", Descending: true},
			query.Limit{N: 3},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT COALESCE(doc -> ?, 'null') AS grp, COUNT(*) AS total FROM records WHERE collection = ? GROUP BY grp ORDER BY total DESC, MIN(seq) ASC LIMIT 3",
			sql)
		assert.Equal(t, []any{"$.service_name", "orders"}, params)
	})

	t.Run("whole collection sum", func(t *testing.T) {
		sql, params, err := c.Aggregate("payments", query.Pipeline{
			query.Group{Sum: "paid", Into: "total"},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT NULL AS grp, SUM(CASE WHEN json_type(doc, ?) IN ('integer', 'real') THEN json_extract(doc, ?) ELSE 0 END) AS total FROM records WHERE collection = ? GROUP BY grp ORDER BY MIN(seq) ASC",
			sql)
		assert.Equal(t, []any{"$.paid", "$.paid", "payments"}, params)
	})

	t.Run("later sort takes precedence", func(t *testing.T) {
		sql, _, err := c.Aggregate("orders", query.Pipeline{
			query.Group{By: "service_name", Into: "count"},
			query.Sort{By: query.GroupKey},
			query.Sort{By: "count", Descending: true},
		})
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY total DESC, json_extract(grp, '$') ASC, MIN(seq) ASC")
	})

	t.Run("smallest limit wins", func(t *testing.T) {
		sql, _, err := c.Aggregate("orders", query.Pipeline{
			query.Group{By: "service_name", Into: "count"},
			query.Limit{N: 5},
			query.Limit{N: 2},
		})
		require.NoError(t, err)
		assert.Contains(t, sql, " LIMIT 2")
	})
}

func TestAggregate_Postgres(t *testing.T) {
	sql, params, err := NewCompiler(Postgres).Aggregate("orders", query.Pipeline{
		query.Group{By: "service_name", Into: "count"},
		query.Sort{By: "count", Descending: true},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COALESCE(doc -> $1::text, 'null'::jsonb)::text AS grp, COUNT(*) AS total FROM records WHERE collection = $2 GROUP BY COALESCE(doc -> $1::text, 'null'::jsonb) ORDER BY total DESC, MIN(seq) ASC",
		sql)
	assert.Equal(t, []any{"service_name", "orders"}, params)
}

func TestAggregate_PostgresSum(t *testing.T) {
	sql, params, err := NewCompiler(Postgres).Aggregate("payments", query.Pipeline{
		query.Group{Sum: "paid", Into: "total"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "SUM(CASE WHEN jsonb_typeof(doc -> $1::text) = 'number' THEN ((doc ->> $2::text))::float8 ELSE 0 END) AS total")
	assert.Contains(t, sql, "WHERE collection = $3")
	assert.Equal(t, []any{"paid", "paid", "payments"}, params)
}

func TestAggregate_Rejects(t *testing.T) {
	c := NewCompiler(SQLite)

	_, _, err := c.Aggregate("orders", nil)
	assert.Error(t, err)

	_, _, err = c.Aggregate("orders", query.Pipeline{
		query.Group{By: "service_name", Into: "count"},
		query.Limit{N: 1},
		query.Sort{By: "count"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort after limit")
}

func TestInsert(t *testing.T) {
	assert.Equal(t, "INSERT INTO records (collection, id, doc) VALUES (?, ?, ?)", NewCompiler(SQLite).Insert())
	assert.Equal(t, "INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3::jsonb)", NewCompiler(Postgres).Insert())
}

func TestDelete(t *testing.T) {
	assert.Equal(t, "DELETE FROM records WHERE collection = ?", NewCompiler(SQLite).Delete())
	assert.Equal(t, "DELETE FROM records WHERE collection = $1", NewCompiler(Postgres).Delete())
}

func TestCompile_Deterministic(t *testing.T) {
	c := NewCompiler(Postgres)
	pred := query.All(
		query.Eq{Field: "status", Value: "scheduled"},
		query.Contains{Field: "instructor", Substring: "anita"},
	)

	first, firstParams, err := c.Select("classes", pred)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		sql, params, err := c.Select("classes", pred)
		require.NoError(t, err)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstParams, params)
	}
}
