package respcache

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Indicator values are compared with JavaScript's abstract (==) equality so
// that a configured true matches a response field of true, 1 or "1", and a
// configured "200" matches 200. Objects and arrays never equal each other but
// compare to primitives through their string form ([1] == 1, [] == "").

type jsKind uint8

const (
	jsUndefined jsKind = iota
	jsNull
	jsBool
	jsNumber
	jsString
	jsObject
)

type jsValue struct {
	kind jsKind
	b    bool
	n    float64
	s    string // string value, or primitive string form of an object
}

// Match reports whether the top-level field ind.Key of the JSON document body
// loosely equals ind.Value. Bodies that are not JSON never match.
func (ind Indicator) Match(body []byte) bool {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	field := jsValue{kind: jsUndefined}
	if obj, ok := doc.(map[string]any); ok {
		if v, ok := obj[ind.Key]; ok {
			field = fromJSON(v)
		}
	}
	return looseEqual(field, fromGo(ind.Value))
}

func looseEqual(a, b jsValue) bool {
	if a.kind == b.kind {
		switch a.kind {
		case jsUndefined, jsNull:
			return true
		case jsBool:
			return a.b == b.b
		case jsNumber:
			return a.n == b.n // NaN != NaN
		case jsString:
			return a.s == b.s
		default:
			return false // distinct objects
		}
	}
	if nullish(a) || nullish(b) {
		return nullish(a) && nullish(b)
	}
	switch {
	case a.kind == jsNumber && b.kind == jsString:
		return a.n == toNumber(b.s)
	case a.kind == jsString && b.kind == jsNumber:
		return toNumber(a.s) == b.n
	case a.kind == jsBool:
		return looseEqual(boolNumber(a.b), b)
	case b.kind == jsBool:
		return looseEqual(a, boolNumber(b.b))
	case a.kind == jsObject:
		return looseEqual(jsValue{kind: jsString, s: a.s}, b)
	case b.kind == jsObject:
		return looseEqual(a, jsValue{kind: jsString, s: b.s})
	}
	return false
}

func nullish(v jsValue) bool { return v.kind == jsUndefined || v.kind == jsNull }

func boolNumber(b bool) jsValue {
	if b {
		return jsValue{kind: jsNumber, n: 1}
	}
	return jsValue{kind: jsNumber, n: 0}
}

// fromJSON converts a value produced by encoding/json into a jsValue.
func fromJSON(v any) jsValue {
	switch t := v.(type) {
	case nil:
		return jsValue{kind: jsNull}
	case bool:
		return jsValue{kind: jsBool, b: t}
	case float64:
		return jsValue{kind: jsNumber, n: t}
	case string:
		return jsValue{kind: jsString, s: t}
	default:
		return jsValue{kind: jsObject, s: primitiveString(t)}
	}
}

// fromGo converts a configured indicator value. Composite values go through
// a JSON round trip so they compare like parsed documents.
func fromGo(v any) jsValue {
	switch t := v.(type) {
	case nil:
		return jsValue{kind: jsNull}
	case bool:
		return jsValue{kind: jsBool, b: t}
	case string:
		return jsValue{kind: jsString, s: t}
	case json.Number:
		return jsValue{kind: jsNumber, n: toNumber(t.String())}
	case int:
		return jsValue{kind: jsNumber, n: float64(t)}
	case int8:
		return jsValue{kind: jsNumber, n: float64(t)}
	case int16:
		return jsValue{kind: jsNumber, n: float64(t)}
	case int32:
		return jsValue{kind: jsNumber, n: float64(t)}
	case int64:
		return jsValue{kind: jsNumber, n: float64(t)}
	case uint:
		return jsValue{kind: jsNumber, n: float64(t)}
	case uint8:
		return jsValue{kind: jsNumber, n: float64(t)}
	case uint16:
		return jsValue{kind: jsNumber, n: float64(t)}
	case uint32:
		return jsValue{kind: jsNumber, n: float64(t)}
	case uint64:
		return jsValue{kind: jsNumber, n: float64(t)}
	case float32:
		return jsValue{kind: jsNumber, n: float64(t)}
	case float64:
		return jsValue{kind: jsNumber, n: t}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return jsValue{kind: jsUndefined}
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return jsValue{kind: jsUndefined}
	}
	return fromJSON(doc)
}

// primitiveString is the ToPrimitive string form of a parsed object/array.
func primitiveString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return numberString(t)
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = primitiveString(e) // null elements join as ""
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

func numberString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// toNumber follows the JavaScript StringToNumber conversion; invalid input is NaN.
func toNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}
