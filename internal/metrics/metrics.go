// Package metrics implements the per-run metrics processor. Events are
// grouped by the run's pipeline id and pushed to redis fire-and-forget; a
// failure to flush never fails the pipeline.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"gazette-backend/internal/models"
)

type ItemFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

type runEvent struct {
	PipelineID string        `json:"pipeline_id"`
	Stage      string        `json:"stage"`
	Considered int           `json:"considered"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	Unclean    bool          `json:"unclean"`
	FlushedAt  float64       `json:"flushed_at"`
}

// Processor collects per-item outcomes for one stage run. It is injected at
// stage entry; Complete must be called on every exit path.
type Processor struct {
	client     *redis.Client
	pipelineID string
	stage      string

	mu         sync.Mutex
	considered int
	succeeded  int
	failures   []ItemFailure
	unclean    bool
}

// NewProcessor builds a processor. A nil client disables persistence but
// keeps the counters usable.
func NewProcessor(client *redis.Client, pipelineID, stage string) *Processor {
	return &Processor{client: client, pipelineID: pipelineID, stage: stage}
}

func (p *Processor) RecordConsidered(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.considered += n
}

func (p *Processor) RecordSuccess(itemID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.succeeded++
}

func (p *Processor) RecordFailure(itemID, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, ItemFailure{ItemID: itemID, Reason: reason})
}

// MarkUnclean flags the run as aborted; the flag travels with the flush.
func (p *Processor) MarkUnclean() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unclean = true
}

// Snapshot returns the current counters (considered, succeeded, failed).
func (p *Processor) Snapshot() (int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.considered, p.succeeded, len(p.failures)
}

// Complete flushes the run event. Errors are logged, never returned: the
// metrics sink must not take the pipeline down with it.
func (p *Processor) Complete(ctx context.Context) {
	p.mu.Lock()
	event := runEvent{
		PipelineID: p.pipelineID,
		Stage:      p.stage,
		Considered: p.considered,
		Succeeded:  p.succeeded,
		Failed:     len(p.failures),
		Failures:   p.failures,
		Unclean:    p.unclean,
		FlushedAt:  models.EpochNow(),
	}
	p.mu.Unlock()

	log.Printf("[%s] run complete: considered=%d succeeded=%d failed=%d unclean=%v",
		p.stage, event.Considered, event.Succeeded, event.Failed, event.Unclean)

	if p.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[%s] failed to encode metrics event: %v", p.stage, err)
		return
	}
	if err := p.client.LPush(ctx, "metrics:"+p.pipelineID, payload).Err(); err != nil {
		log.Printf("[%s] failed to flush metrics event: %v", p.stage, err)
	}
}
