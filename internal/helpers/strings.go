package helpers

import "strings"

// SplitAndTrim splits s by sep and drops empty parts.
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FlattenList expands comma separated entries, as produced by env overrides
// like APP_KAFKA_BROKERS="a:9092,b:9092", into one value per element.
func FlattenList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, SplitAndTrim(v, ",")...)
	}
	return out
}
