package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/kb-query/internal/schema"
)

// Statement is a rendered statement and its bound parameters. Query never
// contains user-supplied values; every value is referenced as :paramN.
type Statement struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params"`
}

// Result is the serializable outcome of a compile.
type Result struct {
	Query       string         `json:"query"`
	Params      map[string]any `json:"params"`
	Fingerprint string         `json:"fingerprint"`
	Display     string         `json:"display,omitempty"`
}

// Result packages the statement for output. display adds the substituted text.
func (s Statement) Result(display bool) Result {
	r := Result{Query: s.Query, Params: s.Params, Fingerprint: s.Fingerprint()}
	if display {
		r.Display = s.Display()
	}
	return r
}

// Fingerprint is a stable hash of the statement text, for log correlation.
func (s Statement) Fingerprint() string {
	return fmt.Sprintf("%016x", xxh3.HashString(s.Query))
}

// Display substitutes every parameter back into the statement. The result is
// not escaped and must only be used for logging.
func (s Statement) Display() string {
	names := make([]string, 0, len(s.Params))
	for k := range s.Params {
		names = append(names, k)
	}
	// longest first so :param1 never matches inside :param10
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, ":"+k, displayValue(s.Params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(s.Query)
}

func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + x + "'"
	case schema.RID:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// binder allocates parameter names during one render pass. It is passed by
// value and returned by every render call; the params map belongs to the pass.
type binder struct {
	next   int
	params map[string]any
}

func newBinder(start int) binder {
	return binder{next: start, params: map[string]any{}}
}

func (b binder) bind(v any) (string, binder) {
	name := ParamPrefix + strconv.Itoa(b.next)
	b.params[name] = v
	b.next++
	return ":" + name, b
}
