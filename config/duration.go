package config

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration written as text, e.g. "250ms" or "2m", in
// config files and flags. A bare number is a count of seconds, so a poll
// interval can be given as "30".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a duration. Empty text leaves d unchanged.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: want e.g. 1s, 250ms or a number of seconds", s)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a JSON string or number, since YAML config files
// reach the parser as JSON.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	return d.UnmarshalText(bytes.Trim(b, `"`))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Set and Type make Duration usable as a pflag.Value.
func (d *Duration) Set(raw string) error {
	return d.UnmarshalText([]byte(raw))
}

func (d *Duration) Type() string {
	return "duration"
}
