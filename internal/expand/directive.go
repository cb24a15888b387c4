package expand

import (
	"math"
	"regexp"
	"strconv"

	"github.com/vk/xenogen/internal/specnode"
)

// directiveRe matches nested-instantiation keys:
//
//	_as_ name
//	_as_ name{i in 1..5}
//	_as_ name{i in 1..replica_count}
var directiveRe = regexp.MustCompile(`^_as_\s+(\w+)(?:\{(\w+)\s+in\s+(\d+)\.\.(\w+)\})?$`)

// directive is a parsed _as_ key.
type directive struct {
	Name    string
	LoopVar string // empty for the single-instantiation form
	Start   int64
	EndExpr string // literal digits or a parameter name
}

func parseDirective(key string) (directive, bool) {
	m := directiveRe.FindStringSubmatch(key)
	if m == nil {
		return directive{}, false
	}
	d := directive{Name: m[1], LoopVar: m[2], EndExpr: m[4]}
	if d.LoopVar != "" {
		d.Start, _ = strconv.ParseInt(m[3], 10, 64)
	}
	return d, true
}

// end resolves the loop upper bound: a literal integer, or a parameter
// looked up in scope (rounded when the parameter was sampled as a
// float). A missing parameter is a MissingParameterError.
func (d directive) end(scope *specnode.Scope, templateName string) (int64, error) {
	if n, err := strconv.ParseInt(d.EndExpr, 10, 64); err == nil {
		return n, nil
	}
	v, ok := scope.Lookup(d.EndExpr)
	if !ok {
		return 0, &MissingParameterError{Param: d.EndExpr, Template: templateName}
	}
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case float64:
		return int64(math.Round(val)), nil
	default:
		return 0, &MissingParameterError{Param: d.EndExpr, Template: templateName}
	}
}
