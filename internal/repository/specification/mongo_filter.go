package specification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"nutriplan-llm-be/pkg/store"

	"gorm.io/gorm"
)

// MongoFilter translates a MongoDB-style filter mapping into SQL conditions
// over the foods table. Dotted field names address JSONB paths, e.g.
// "nutrition.proteins" becomes (nutrition->>'proteins')::numeric.
//
// Field names come out of an LLM, so everything is validated against a
// closed set of roots and a safe identifier pattern before it reaches SQL.
type MongoFilter struct {
	conditions []condition
}

type condition struct {
	expr string
	args []any
}

var jsonRoots = map[string]bool{
	"nutrition": true,
	"property":  true,
}

var plainColumns = map[string]bool{
	"name":         true,
	"text_content": true,
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var operatorSQL = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
	"$eq":  "=",
	"$ne":  "<>",
}

// NewMongoFilter validates and compiles the filter. Compilation is separate
// from Apply because Specification.Apply cannot fail.
func NewMongoFilter(filter store.Filter) (MongoFilter, error) {
	mf := MongoFilter{}

	// Deterministic condition order keeps generated SQL stable for tests
	// and query-plan caching.
	fields := make([]string, 0, len(filter))
	for field := range filter {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := filter[field]

		ops, isDoc := asOperatorDoc(value)
		if !isDoc {
			cond, err := buildCondition(field, "$eq", value)
			if err != nil {
				return MongoFilter{}, err
			}
			mf.conditions = append(mf.conditions, cond)
			continue
		}

		opNames := make([]string, 0, len(ops))
		for op := range ops {
			opNames = append(opNames, op)
		}
		sort.Strings(opNames)

		for _, op := range opNames {
			cond, err := buildCondition(field, op, ops[op])
			if err != nil {
				return MongoFilter{}, err
			}
			mf.conditions = append(mf.conditions, cond)
		}
	}

	return mf, nil
}

func (s MongoFilter) Apply(db *gorm.DB) *gorm.DB {
	for _, cond := range s.conditions {
		db = db.Where(cond.expr, cond.args...)
	}
	return db
}

// asOperatorDoc reports whether the value is an operator document like
// {"$gt": 30}. A plain nested map without $-keys is not a valid filter shape
// and is treated as equality against the raw value.
func asOperatorDoc(value any) (map[string]any, bool) {
	doc, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	for key := range doc {
		if !strings.HasPrefix(key, "$") {
			return nil, false
		}
	}
	return doc, len(doc) > 0
}

func buildCondition(field, op string, value any) (condition, error) {
	if op == "$in" {
		items, ok := value.([]any)
		if !ok {
			return condition{}, fmt.Errorf("$in requires an array value for field %q", field)
		}
		// Cast from the element type so a numeric list compares against
		// a numeric JSONB extraction, not raw text.
		var sample any
		if len(items) > 0 {
			sample = items[0]
		}
		expr, err := fieldExpr(field, sample)
		if err != nil {
			return condition{}, err
		}
		return condition{expr: expr + " IN ?", args: []any{items}}, nil
	}

	expr, err := fieldExpr(field, value)
	if err != nil {
		return condition{}, err
	}

	sqlOp, ok := operatorSQL[op]
	if !ok {
		return condition{}, fmt.Errorf("unsupported filter operator %q for field %q", op, field)
	}
	return condition{expr: fmt.Sprintf("%s %s ?", expr, sqlOp), args: []any{value}}, nil
}

func fieldExpr(field string, value any) (string, error) {
	root, sub, dotted := strings.Cut(field, ".")

	if !dotted {
		if !plainColumns[root] {
			return "", fmt.Errorf("unknown filter field %q", field)
		}
		return root, nil
	}

	if !jsonRoots[root] {
		return "", fmt.Errorf("unknown filter field %q", field)
	}
	if !identPattern.MatchString(sub) {
		return "", fmt.Errorf("invalid filter path %q", field)
	}

	base := fmt.Sprintf("(%s->>'%s')", root, sub)
	switch value.(type) {
	case bool:
		return base + "::boolean", nil
	case float64, float32, int, int32, int64:
		return base + "::numeric", nil
	default:
		return base, nil
	}
}
