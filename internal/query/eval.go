package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/studiodesk/internal/doc"
)

// Match reports whether rec satisfies p. A nil predicate matches.
func Match(p Predicate, rec doc.Record) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Eq:
		v, ok := rec[pred.Field]
		if pred.Value == nil {
			return !ok || v == nil
		}
		return ok && equal(v, pred.Value)
	case Contains:
		s, ok := rec[pred.Field].(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(pred.Substring))
	case Gte:
		c, ok := compareValues(rec[pred.Field], pred.Value)
		return ok && c >= 0
	case HasSuffix:
		s, ok := rec[pred.Field].(string)
		return ok && strings.HasSuffix(s, pred.Suffix)
	case And:
		for _, child := range pred.Predicates {
			if !Match(child, rec) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Filter returns the records matching p, preserving order.
func Filter(p Predicate, recs []doc.Record) []doc.Record {
	out := []doc.Record{}
	for _, rec := range recs {
		if Match(p, rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Run evaluates a validated pipeline over recs.
func Run(pl Pipeline, recs []doc.Record) ([]doc.Record, error) {
	if err := ValidatePipeline(pl); err != nil {
		return nil, err
	}

	rows := group(GroupOf(pl), recs)
	for _, st := range pl[1:] {
		switch stage := st.(type) {
		case Sort:
			slices.SortStableFunc(rows, func(a, b doc.Record) int {
				c := orderValues(a[stage.By], b[stage.By])
				if stage.Descending {
					return -c
				}
				return c
			})
		case Limit:
			if len(rows) > stage.N {
				rows = rows[:stage.N]
			}
		}
	}
	return rows, nil
}

// group folds recs into one row per distinct key, in first-appearance order.
func group(g Group, recs []doc.Record) []doc.Record {
	type acc struct {
		key     any
		count   int64
		intSum  int64
		fltSum  float64
		isFloat bool
	}

	var order []string
	groups := map[string]*acc{}
	for _, rec := range recs {
		var key any
		if g.By != "" {
			key = doc.Normalize(rec[g.By])
		}
		id := groupID(key)
		a, ok := groups[id]
		if !ok {
			a = &acc{key: key}
			groups[id] = a
			order = append(order, id)
		}
		a.count++
		if g.Sum == "" {
			continue
		}
		switch n := doc.Normalize(rec[g.Sum]).(type) {
		case int64:
			a.intSum += n
		case float64:
			a.fltSum += n
			a.isFloat = true
		}
	}

	rows := make([]doc.Record, 0, len(order))
	for _, id := range order {
		a := groups[id]
		var total any
		switch {
		case g.Sum == "":
			total = a.count
		case a.isFloat:
			total = a.fltSum + float64(a.intSum)
		default:
			total = a.intSum
		}
		rows = append(rows, doc.Record{GroupKey: a.key, g.Into: total})
	}
	return rows
}

// groupID gives distinct keys distinct identities while treating numbers
// of equal value as the same key.
func groupID(key any) string {
	if f, ok := doc.ToFloat(key); ok {
		key = f
	}
	b, err := doc.MarshalCanonical(key)
	if err != nil {
		return "?"
	}
	return string(b)
}

func equal(a, b any) bool {
	if fa, ok := doc.ToFloat(a); ok {
		fb, ok := doc.ToFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

// compareValues compares two values of the same kind. ok is false for
// mixed or unordered kinds.
func compareValues(a, b any) (int, bool) {
	if fa, ok := doc.ToFloat(a); ok {
		fb, ok := doc.ToFloat(b)
		if !ok {
			return 0, false
		}
		return cmp.Compare(fa, fb), true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// orderValues is a total order for sorting rows: nil < numbers < strings
// < everything else.
func orderValues(a, b any) int {
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return cmp.Compare(kindRank(a), kindRank(b))
}

func kindRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := doc.ToFloat(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}
