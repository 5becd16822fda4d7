package logging

import (
	"sync"
	"time"
)

// Entry is a single captured log record.
type Entry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Collector stores captured log entries keyed by activity name. One
// collector lives for the duration of a run; the server attaches its
// contents to the run record.
type Collector struct {
	mu   sync.RWMutex
	logs map[string][]Entry
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		logs: make(map[string][]Entry),
	}
}

// Add appends an entry for the named activity.
func (c *Collector) Add(name string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[name] = append(c.logs[name], entry)
}

// Logs returns a copy of the entries captured for one activity.
func (c *Collector) Logs(name string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, ok := c.logs[name]
	if !ok {
		return nil
	}
	out := make([]Entry, len(logs))
	copy(out, logs)
	return out
}

// All returns a deep copy of every captured entry, keyed by activity.
func (c *Collector) All() map[string][]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]Entry, len(c.logs))
	for name, logs := range c.logs {
		cp := make([]Entry, len(logs))
		copy(cp, logs)
		out[name] = cp
	}
	return out
}
