package logger

import (
	"sync"
	"time"
)

// Entry is one collected warn/error log line.
type Entry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Caller  string                 `json:"caller"`
	Count   int                    `json:"count"`
	Last    time.Time              `json:"last_seen"`
}

// Collector keeps a bounded in-memory ring of recent warn/error entries.
// Repeated identical messages are deduplicated by level+message+caller so a
// flapping upstream does not flood the ring. The contents are exposed through
// the diagnostics endpoint.
type Collector struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]*Entry
}

// NewCollector creates a collector retaining at most max distinct entries.
func NewCollector(max int) *Collector {
	if max <= 0 {
		max = 100
	}
	return &Collector{
		max:     max,
		entries: make(map[string]*Entry),
	}
}

func (c *Collector) Add(level, message string, fields map[string]interface{}, caller string) {
	key := level + "|" + message + "|" + caller

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Count++
		e.Last = time.Now()
		e.Fields = fields
		return
	}

	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &Entry{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
		Count:   1,
		Last:    time.Now(),
	}
	c.order = append(c.order, key)
}

// Recent returns the collected entries, oldest first.
func (c *Collector) Recent() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.entries[key])
	}
	return out
}
