package syncrun

import (
	"encoding/json"
	"log"
	"strconv"
)

// Stats is the normalized per-run statistics mapping. A nil Stats means
// "no data"; callers treat that as a legitimate answer, not an error.
type Stats map[string]any

// ParseStats normalizes a raw statistics value into Stats. Maps are accepted
// as-is. Strings are parsed as JSON; a malformed string degrades to nil
// rather than surfacing an error, because status reporting must never abort
// on a bad stats blob. Anything else (nil included) yields nil.
func ParseStats(raw any) Stats {
	switch v := raw.(type) {
	case nil:
		return nil
	case Stats:
		return v
	case map[string]any:
		return Stats(v)
	case string:
		if v == "" {
			return nil
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			log.Printf("Warning: malformed sync stats blob, ignoring: %v", err)
			return nil
		}
		return Stats(parsed)
	case []byte:
		return ParseStats(string(v))
	default:
		return nil
	}
}

// Int reads a numeric stat, tolerating the types a JSON round trip can
// produce. Missing or non-numeric values read as 0.
func (s Stats) Int(key string) int {
	if s == nil {
		return 0
	}
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
