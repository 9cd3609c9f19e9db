package compute

import (
	"fmt"
	"net/url"
	"strings"
)

// Destination is where a job is sent: a scheduler, an optional cell (or
// cluster) and an optional queue (or partition).
//
// Destinations are written as URLs, e.g. "sge://cell1/long.q". An empty
// queue means the scheduler's default queue.
type Destination struct {
	Scheme string
	Cell   string
	Queue  string
}

// ParseDestination parses a destination URL.
func ParseDestination(raw string) (Destination, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Destination{}, fmt.Errorf("invalid destination %q: %v", raw, err)
	}
	if u.Scheme == "" {
		return Destination{}, fmt.Errorf("invalid destination %q: missing scheme", raw)
	}
	return Destination{
		Scheme: u.Scheme,
		Cell:   u.Host,
		Queue:  strings.Trim(u.Path, "/"),
	}, nil
}
