package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveISO is the zone-less ISO-8601 layout of the data files. Values are
// local wall-clock time.
const naiveISO = "2006-01-02T15:04:05.999999999"

// storedISO is naiveISO at microsecond precision, the layout written back.
const storedISO = "2006-01-02T15:04:05.000000"

// Timestamp is a time.Time that reads RFC3339 or zone-less ISO-8601 and
// always writes zone-less local time with microseconds.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp accepts RFC3339 or zone-less ISO-8601.
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	t, err := time.ParseInLocation(naiveISO, s, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.In(time.Local).Format(storedISO))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Equal compares instants, ignoring location and monotonic readings.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.Time.Equal(o.Time)
}
