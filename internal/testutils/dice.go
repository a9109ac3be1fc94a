package testutils

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"
)

var _ dice.Roller = (*SequenceRoller)(nil)

// SequenceRoller returns scripted rolls in order, ignoring the die size. It
// fails once the script runs out so tests notice unexpected rolls.
type SequenceRoller struct {
	mu    sync.Mutex
	rolls []int
	calls []int
}

// NewSequenceRoller scripts the given rolls
func NewSequenceRoller(rolls ...int) *SequenceRoller {
	return &SequenceRoller{rolls: rolls}
}

// Push appends more scripted rolls
func (r *SequenceRoller) Push(rolls ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolls = append(r.rolls, rolls...)
}

// Roll pops the next scripted value
func (r *SequenceRoller) Roll(size int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rolls) == 0 {
		return 0, fmt.Errorf("sequence roller exhausted rolling d%d", size)
	}
	v := r.rolls[0]
	r.rolls = r.rolls[1:]
	r.calls = append(r.calls, size)
	return v, nil
}

// RollN pops count scripted values
func (r *SequenceRoller) RollN(count, size int) ([]int, error) {
	out := make([]int, 0, count)
	for range count {
		v, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Sizes returns the die sizes requested so far
func (r *SequenceRoller) Sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

// Remaining returns how many scripted rolls are left
func (r *SequenceRoller) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rolls)
}
