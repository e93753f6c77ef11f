package relay

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// codec decodes upstream bodies and renders raw responses. Map keys are
// sorted so pretty output is stable across calls.
var codec = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
	UseNumber:      true,
}.Froze()

// decodeJSON parses an arbitrary JSON document.
func decodeJSON(data []byte) (any, error) {
	var v any
	if err := codec.Unmarshal(data, &v); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return v, nil
}

// PrettyJSON renders v as indented JSON, keeping non-ASCII text as is.
func PrettyJSON(v any) string {
	out, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// Float converts a decoded JSON scalar to float64. Numeric strings are
// accepted; anything else reports false.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// numberOr returns m[key] as a number, or def when absent or not numeric.
func numberOr(m map[string]any, key string, def float64) float64 {
	if f, ok := Float(m[key]); ok {
		return f
	}
	return def
}

// truthy reports whether a decoded JSON value is non-empty and non-zero.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// round2 rounds half-to-even on the exact binary value, like the
// formatting of a float to two decimals.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return f
}
