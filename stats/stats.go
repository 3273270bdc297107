package stats

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeExecuted  EventType = "executed"
	EventTypeFailed    EventType = "failed"
	EventTypeRejected  EventType = "rejected"
	EventTypeFollowUp  EventType = "follow_up"
	EventTypeDelivered EventType = "delivered"
)

type Event struct {
	Type   EventType
	Action string
	Err    error
}

type Summary struct {
	Executed  int
	Failed    int
	Rejected  int
	FollowUps int
	Delivered int
	LastError error
	Actions   map[string]int
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"executed", s.Executed,
		"failed", s.Failed,
		"rejected", s.Rejected,
		"followUps", s.FollowUps,
		"delivered", s.Delivered,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector counts session events. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{summary: Summary{Actions: map[string]int{}}}
}

func (c *Collector) Record(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeExecuted:
		c.summary.Executed++
		if evt.Action != "" {
			c.summary.Actions[evt.Action]++
		}
	case EventTypeFailed:
		c.summary.Failed++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	case EventTypeRejected:
		c.summary.Rejected++
	case EventTypeFollowUp:
		c.summary.FollowUps++
	case EventTypeDelivered:
		c.summary.Delivered++
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := c.summary
	summary.Actions = make(map[string]int, len(c.summary.Actions))
	for k, v := range c.summary.Actions {
		summary.Actions[k] = v
	}
	return summary
}

// Reporter logs the session summary when the conversation ends.
type Reporter struct {
	*Collector
	logger  *slog.Logger
	started time.Time
}

func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{
		Collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
}

func (r *Reporter) Finish() Summary {
	summary := r.Snapshot()
	if r.logger != nil {
		attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
		r.logger.Info("session summary", attrs...)
	}
	return summary
}

// TopActions formats the limit most used actions, most frequent first.
func TopActions(m map[string]int, limit int) []string {
	type pair struct {
		Key   string
		Value int
	}

	pairs := make([]pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value == pairs[j].Value {
			return pairs[i].Key < pairs[j].Key
		}
		return pairs[i].Value > pairs[j].Value
	})

	var lines []string
	for i := 0; i < limit && i < len(pairs); i++ {
		lines = append(lines, fmt.Sprintf("%d. %s (%d)", i+1, pairs[i].Key, pairs[i].Value))
	}
	return lines
}
