package util

import "fmt"

// Sanitization bounds. Host-supplied property maps are untrusted input;
// these caps guarantee a bounded payload size regardless of what the host
// passes in.
const (
	// MaxDepth is the maximum nesting depth kept in a property map.
	MaxDepth = 3
	// MaxKeys is the maximum number of keys kept per map level.
	MaxKeys = 50
	// MaxStringLen is the maximum rune length kept for string values.
	MaxStringLen = 500
)

// SanitizeProperties returns a bounded copy of props: nesting deeper than
// MaxDepth is dropped, each map keeps at most MaxKeys keys, and string
// values are truncated to MaxStringLen runes. The input is never mutated.
// A nil input yields an empty, non-nil map so callers can marshal it as {}.
func SanitizeProperties(props map[string]any) map[string]any {
	return sanitizeMap(props, 1)
}

func sanitizeMap(props map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(props))
	if depth > MaxDepth {
		return out
	}
	n := 0
	for k, v := range props {
		if n >= MaxKeys {
			break
		}
		out[TruncateString(k, MaxStringLen)] = sanitizeValue(v, depth)
		n++
	}
	return out
}

func sanitizeValue(v any, depth int) any {
	switch val := v.(type) {
	case string:
		return TruncateString(val, MaxStringLen)
	case map[string]any:
		if depth >= MaxDepth {
			// Too deep: keep a marker rather than the subtree.
			return "[object]"
		}
		return sanitizeMap(val, depth+1)
	case []any:
		if depth >= MaxDepth {
			return "[array]"
		}
		out := make([]any, 0, len(val))
		for i, item := range val {
			if i >= MaxKeys {
				break
			}
			out = append(out, sanitizeValue(item, depth+1))
		}
		return out
	case nil, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return val
	default:
		// Unknown types are stringified so marshalling cannot fail later.
		return TruncateString(stringify(val), MaxStringLen)
	}
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}

// TruncateString returns s cut to at most max runes.
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
