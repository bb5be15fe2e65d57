package orchestrator

import (
	"sync"

	"github.com/carverauto/noderadar/pkg/models"
)

// OutboundEntry is one config/actions submission for a node.
type OutboundEntry struct {
	NodeID  string
	Config  []interface{}
	Actions []models.Action
}

// QueueInput buffers outbound submissions until the next poll forwards them.
type QueueInput struct {
	mu      sync.Mutex
	entries []OutboundEntry
}

func NewQueueInput() *QueueInput {
	return &QueueInput{}
}

func (q *QueueInput) Push(nodeID string, config []interface{}, actions []models.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, OutboundEntry{NodeID: nodeID, Config: config, Actions: actions})
}

// Drain returns the buffered entries in submission order and empties the queue.
func (q *QueueInput) Drain() []OutboundEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.entries
	q.entries = nil

	return out
}

func (q *QueueInput) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}
