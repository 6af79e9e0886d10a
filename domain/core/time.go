package core

import (
	"strconv"
	"time"
)

// Timestamp is a UTC instant serialized as RFC 3339 with nanoseconds
type Timestamp time.Time

// NewTimestamp normalizes t to UTC
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC())
}

// Now returns the current timestamp in UTC
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// After orders run records newest first
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

func (t Timestamp) String() string { return t.Time().Format(time.RFC3339) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Time().Format(time.RFC3339Nano))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	tm, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return err
	}
	*t = NewTimestamp(tm)
	return nil
}
