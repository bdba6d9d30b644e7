// Package crawler periodically crawls the event providers and reconciles their events with the event storage
package crawler

import (
	"fmt"
	"time"
)

// CrawlStatus defines the state a provider's crawl is in
type CrawlStatus uint

const (
	// StatusIdle is the status of a provider waiting for the next tick
	StatusIdle CrawlStatus = iota
	// StatusFetching is the status while the provider's event data is downloaded
	StatusFetching
	// StatusMapping is the status while the downloaded records are converted into events
	StatusMapping
	// StatusReconciling is the status while the events are written into the event storage
	StatusReconciling
)

var (
	// ErrAlreadyQueued is returned when a crawl is triggered for a provider that already has a triggered crawl waiting
	ErrAlreadyQueued = fmt.Errorf("a crawl is already queued for this provider")
)

// String converts the crawl status into a readable name
func (s CrawlStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusMapping:
		return "mapping"
	case StatusReconciling:
		return "reconciling"
	}
	return "unknown"
}

// MarshalJSON implements the json.marshaler interface returning the name of the status
func (s CrawlStatus) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", s)), nil
}

// Stats are the counters of one reconciliation
type Stats struct {
	// The number of events stored for the first time
	Created uint `json:"created"`
	// The number of already known events updated
	Updated uint `json:"updated"`
	// The number of events that could neither be created nor updated
	Failed uint `json:"failed"`
}

// Add sums up two stats
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Created: s.Created + other.Created,
		Updated: s.Updated + other.Updated,
		Failed:  s.Failed + other.Failed,
	}
}

// Crawl describes the crawling state of one provider
type Crawl struct {
	// Name of the provider
	Provider string `json:"provider"`
	// The current status of the crawl. See the Status* constants for possible values
	Status CrawlStatus `json:"status"`
	// Time between two scheduled crawl passes
	Interval string `json:"interval"`
	// Start of the latest crawl pass
	LastStartedAt *time.Time `json:"lastStartedAt"`
	// End of the latest finished crawl pass
	LastFinishedAt *time.Time `json:"lastFinishedAt"`
	// Counters of the latest successful crawl pass
	LastStats Stats `json:"lastStats"`
	// If the latest crawl pass has failed, this is the reason
	LastError string `json:"lastError,omitempty"`
	// Number of finished crawl passes
	Passes uint `json:"passes"`
	// Number of failed crawl passes
	Failures uint `json:"failures"`
	// Whether a manually triggered crawl is waiting
	Queued bool `json:"queued"`
}

func (c Crawl) String() string {
	return fmt.Sprintf(
		"Crawl(%s)[ Status: %s | Passes: %d | Failures: %d | Last stats: %+v | Error: %s ]",
		c.Provider,
		c.Status,
		c.Passes,
		c.Failures,
		c.LastStats,
		c.LastError,
	)
}
