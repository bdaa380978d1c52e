package query

import (
	"fmt"
	"regexp"

	"github.com/roach88/studiodesk/internal/doc"
)

// fieldPattern restricts field names to identifiers. Field names end up
// inside JSON paths and BSON keys, so anything else is rejected up front.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError describes an IR node that no backend can execute.
type ValidationError struct {
	Node    string // "Eq", "Group", ...
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s on %q: %s", e.Node, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Node, e.Message)
}

// ValidateFilter checks a predicate tree. A nil predicate is valid.
func ValidateFilter(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Eq:
		if err := checkField("Eq", pred.Field); err != nil {
			return err
		}
		if !isScalar(pred.Value, true) {
			return &ValidationError{Node: "Eq", Field: pred.Field, Message: fmt.Sprintf("unsupported value type %T", pred.Value)}
		}
	case Contains:
		return checkField("Contains", pred.Field)
	case Gte:
		if err := checkField("Gte", pred.Field); err != nil {
			return err
		}
		if !isScalar(pred.Value, false) {
			return &ValidationError{Node: "Gte", Field: pred.Field, Message: fmt.Sprintf("unsupported value type %T", pred.Value)}
		}
		if _, isBool := pred.Value.(bool); isBool {
			return &ValidationError{Node: "Gte", Field: pred.Field, Message: "booleans are not ordered"}
		}
	case HasSuffix:
		return checkField("HasSuffix", pred.Field)
	case And:
		for _, child := range pred.Predicates {
			if err := ValidateFilter(child); err != nil {
				return err
			}
		}
	default:
		return &ValidationError{Node: fmt.Sprintf("%T", p), Message: "unknown predicate type"}
	}
	return nil
}

// ValidatePipeline checks that a pipeline has the supported shape:
// exactly one Group as the first stage, followed by any number of Sort
// and Limit stages that only reference the group key or accumulator.
func ValidatePipeline(pl Pipeline) error {
	if len(pl) == 0 {
		return &ValidationError{Node: "Pipeline", Message: "empty pipeline"}
	}
	group, ok := pl[0].(Group)
	if !ok {
		return &ValidationError{Node: "Pipeline", Message: fmt.Sprintf("first stage must be Group, got %T", pl[0])}
	}
	if group.By != "" {
		if err := checkField("Group", group.By); err != nil {
			return err
		}
	}
	if group.Sum != "" {
		if err := checkField("Group", group.Sum); err != nil {
			return err
		}
	}
	if err := checkField("Group", group.Into); err != nil {
		return err
	}
	if group.Into == GroupKey {
		return &ValidationError{Node: "Group", Field: group.Into, Message: "accumulator cannot replace the group key"}
	}

	for _, st := range pl[1:] {
		switch stage := st.(type) {
		case Sort:
			if stage.By != GroupKey && stage.By != group.Into {
				return &ValidationError{Node: "Sort", Field: stage.By, Message: fmt.Sprintf("can only sort by %q or %q", GroupKey, group.Into)}
			}
		case Limit:
			if stage.N <= 0 {
				return &ValidationError{Node: "Limit", Message: fmt.Sprintf("limit must be positive, got %d", stage.N)}
			}
		case Group:
			return &ValidationError{Node: "Group", Message: "only one Group stage is supported"}
		default:
			return &ValidationError{Node: fmt.Sprintf("%T", st), Message: "unknown stage type"}
		}
	}
	return nil
}

// GroupOf returns the leading Group stage of a validated pipeline.
func GroupOf(pl Pipeline) Group {
	g, _ := pl[0].(Group)
	return g
}

func checkField(node, field string) error {
	if !fieldPattern.MatchString(field) {
		return &ValidationError{Node: node, Field: field, Message: "field must be an identifier"}
	}
	return nil
}

func isScalar(v any, allowNil bool) bool {
	switch v.(type) {
	case nil:
		return allowNil
	case string, bool:
		return true
	default:
		_, ok := doc.ToFloat(v)
		return ok
	}
}
