package domain

import "math/rand"

// ShuffleCycle tracks random selection order over one queue load. It
// remembers which indices have been visited in the current pass so every
// track plays once before any repeats, and keeps a history stack so a
// backward skip retraces the actual selection order instead of
// re-randomizing.
//
// The history is bounded to one full pass over the queue; when the pass
// is exhausted and a new one begins, visited state resets but history is
// kept so "previous" still walks back through the last selections.
type ShuffleCycle struct {
	size    int
	visited map[int]bool
	history []int
	rng     *rand.Rand
}

// NewShuffleCycle creates a cycle over a queue of the given size.
func NewShuffleCycle(size int, seed int64) *ShuffleCycle {
	return &ShuffleCycle{
		size:    size,
		visited: make(map[int]bool, size),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// MarkVisited records that the given index has played in this pass.
func (c *ShuffleCycle) MarkVisited(index int) {
	if index >= 0 && index < c.size {
		c.visited[index] = true
	}
}

// Remaining returns how many indices have not yet played in this pass,
// excluding the given current index.
func (c *ShuffleCycle) Remaining(current int) int {
	n := 0
	for i := 0; i < c.size; i++ {
		if i != current && !c.visited[i] {
			n++
		}
	}
	return n
}

// Next picks a pseudo-random unvisited index, excluding current. The
// current index is pushed onto the history stack so Previous can retrace
// it. Returns -1 when the pass is exhausted.
func (c *ShuffleCycle) Next(current int) int {
	candidates := make([]int, 0, c.size)
	for i := 0; i < c.size; i++ {
		if i != current && !c.visited[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}

	next := candidates[c.rng.Intn(len(candidates))]
	c.push(current)
	c.visited[next] = true
	return next
}

// ResetPass clears visited state for a fresh reshuffled pass. History is
// retained across the reset.
func (c *ShuffleCycle) ResetPass() {
	c.visited = make(map[int]bool, c.size)
}

// Previous pops the most recent prior selection off the history stack.
// Returns -1 when there is no history.
func (c *ShuffleCycle) Previous() int {
	if len(c.history) == 0 {
		return -1
	}
	last := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	return last
}

// HasHistory returns true if a backward skip has a target.
func (c *ShuffleCycle) HasHistory() bool {
	return len(c.history) > 0
}

func (c *ShuffleCycle) push(index int) {
	if index < 0 || index >= c.size {
		return
	}
	// Bound the stack to one full pass over the queue.
	if len(c.history) >= c.size {
		c.history = c.history[1:]
	}
	c.history = append(c.history, index)
}
