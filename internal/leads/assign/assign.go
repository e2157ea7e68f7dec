// Package assign distributes unowned leads across agents.
package assign

import (
	"sync"

	"terratip_backend/platform/apperr"
)

// RoundRobin hands out agent names in a fixed cycle so a batch of N leads
// split across K agents lands within one lead of even (floor/ceil of N/K).
type RoundRobin struct {
	mu     sync.Mutex
	agents []string
	next   int
}

// NewRoundRobin creates a distributor over the given agents. The agent list
// must not be empty.
func NewRoundRobin(agents []string) (*RoundRobin, error) {
	if len(agents) == 0 {
		return nil, apperr.Validation("no agents available for assignment")
	}
	return &RoundRobin{agents: append([]string(nil), agents...)}, nil
}

// Next returns the next agent in the cycle.
func (r *RoundRobin) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent := r.agents[r.next]
	r.next = (r.next + 1) % len(r.agents)
	return agent
}
