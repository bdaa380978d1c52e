package query

// GroupKey is the field holding the group value in Group output rows.
const GroupKey = "_id"

// Predicate is a filter condition over one record.
//
// Sealed: only types in this package implement it. A nil Predicate
// matches every record.
type Predicate interface {
	predicateNode()
}

// Eq matches records whose Field equals Value.
//
// Numbers compare by value regardless of integer/float representation.
// A nil Value matches records where the field is missing or null.
//
// SQL (sqlite):
//
//	json_extract(doc, '$.status') = ?
type Eq struct {
	Field string
	Value any // string, bool, number or nil
}

func (Eq) predicateNode() {}

// Contains matches records whose string Field contains Substring,
// ignoring case. Non-string fields never match.
type Contains struct {
	Field     string
	Substring string
}

func (Contains) predicateNode() {}

// Gte matches records whose Field is greater than or equal to Value.
//
// Strings compare lexically (timestamps in the canonical layout sort in
// time order); numbers compare numerically. Mixed kinds never match.
type Gte struct {
	Field string
	Value any // string or number
}

func (Gte) predicateNode() {}

// HasSuffix matches records whose string Field ends with Suffix.
type HasSuffix struct {
	Field  string
	Suffix string
}

func (HasSuffix) predicateNode() {}

// And matches when every predicate matches. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// All combines predicates, dropping nils. It returns nil for no
// predicates and the predicate itself for exactly one.
func All(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// Stage is one step of an aggregation pipeline.
//
// Sealed: only types in this package implement it.
type Stage interface {
	stageNode()
}

// Group folds the collection into one row per distinct value of By.
//
// Output rows have two fields: GroupKey holding the group value and Into
// holding the accumulator. With an empty By every record falls into a
// single group whose key is nil; an empty collection yields no rows.
// With an empty Sum the accumulator counts records; otherwise it adds the
// numeric values of Sum, treating missing and non-numeric values as 0.
//
// Rows are emitted in order of first appearance of their key.
type Group struct {
	By   string
	Sum  string
	Into string
}

func (Group) stageNode() {}

// Sort orders rows by a field. The sort is stable: rows that compare
// equal keep their previous order.
type Sort struct {
	By         string
	Descending bool
}

func (Sort) stageNode() {}

// Limit keeps the first N rows.
type Limit struct {
	N int
}

func (Limit) stageNode() {}

// Pipeline is an ordered list of stages.
type Pipeline []Stage
