package watcher

import (
	"context"
	"sort"
	"time"

	"github.com/ritzau/patchc/pkg/logging"
)

// Debouncer batches rapid file system events so a burst of saves triggers a
// single recompilation.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run emits one merged event once the input has been quiet for quietPeriod,
// or maxWait after the first event of a burst.
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet       <-chan time.Time
		deadline    <-chan time.Time
		accumulated = make(map[string]bool)
	)

	flush := func() {
		quiet, deadline = nil, nil
		if len(accumulated) == 0 {
			return
		}
		paths := make([]string, 0, len(accumulated))
		for p := range accumulated {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		accumulated = make(map[string]bool)

		logging.Debug("flushing accumulated events", "count", len(paths))
		select {
		case d.output <- ChangeEvent{Paths: paths, Timestamp: time.Now()}:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			for _, p := range event.Paths {
				accumulated[p] = true
			}
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
