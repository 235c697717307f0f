package manifest

import (
	"fmt"
	"strings"
	"time"
)

// TimestampFormat selects how last_updated is rendered.
type TimestampFormat string

const (
	// TimestampLegacy renders an ISO-8601 time with an explicit +00:00
	// offset followed by a literal "Z", e.g. 2024-05-01T10:20:30.123456+00:00Z.
	// The doubled zone marker is not valid RFC 3339, but existing
	// manifests carry it, so it stays the default.
	TimestampLegacy TimestampFormat = "legacy"

	// TimestampRFC3339 renders 2024-05-01T10:20:30.123456Z.
	TimestampRFC3339 TimestampFormat = "rfc3339"
)

// ParseTimestampFormat validates a timestamp_format value.
func ParseTimestampFormat(s string) (TimestampFormat, error) {
	switch f := TimestampFormat(s); f {
	case TimestampLegacy, TimestampRFC3339:
		return f, nil
	case "":
		return TimestampLegacy, nil
	default:
		return "", fmt.Errorf("unknown timestamp format %q", s)
	}
}

// FormatTimestamp renders t in UTC using the given format.
func FormatTimestamp(t time.Time, f TimestampFormat) string {
	t = t.UTC()
	if f == TimestampRFC3339 {
		return t.Format("2006-01-02T15:04:05.000000Z07:00")
	}

	// Microsecond precision, fraction omitted when zero.
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / int(time.Microsecond); us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s + "+00:00Z"
}

// ParseTimestamp reads a last_updated value written in either format.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if trimmed, ok := strings.CutSuffix(s, "Z"); ok {
		if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Touch stamps last_updated with now.
func (m *Manifest) Touch(now time.Time, f TimestampFormat) {
	m.LastUpdated = FormatTimestamp(now, f)
}
