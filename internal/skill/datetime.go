package skill

import "strings"

// parseDateTime splits platform date and time slot values into the
// components the hub expects. Missing components stay nil.
//
// Dates look like "2026-03-15", "2026-03" or "2026". Times are either
// "HH:MM[:SS]" or a single unit value such as "10h", "30m" or "15s".
func parseDateTime(date, clock string) map[string]*string {
	out := map[string]*string{
		"year":    nil,
		"month":   nil,
		"day":     nil,
		"hour":    nil,
		"minute":  nil,
		"seconds": nil,
	}

	if date != "" {
		setParts(out, strings.Split(date, "-"), "year", "month", "day")
	}
	if clock == "" {
		return out
	}

	lower := strings.ToLower(clock)
	switch {
	case strings.Contains(lower, "s"):
		out["seconds"] = ptr(strings.ReplaceAll(lower, "s", ""))
	case strings.Contains(lower, "m"):
		out["minute"] = ptr(strings.ReplaceAll(lower, "m", ""))
	case strings.Contains(lower, "h"):
		out["hour"] = ptr(strings.ReplaceAll(lower, "h", ""))
	default:
		setParts(out, strings.Split(clock, ":"), "hour", "minute", "seconds")
	}
	return out
}

func setParts(out map[string]*string, parts []string, keys ...string) {
	for i, key := range keys {
		if i < len(parts) {
			out[key] = ptr(parts[i])
		}
	}
}

func ptr(s string) *string { return &s }
