// Package topology derives the neighbor relation between agents placed on a
// line by index.
package topology

import (
	"fmt"

	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/model"
)

// DefaultWindow is the neighbor radius used when none is configured.
const DefaultWindow = 2

// Neighbors returns the indices j != i with |i-j| <= window, in ascending order.
// A window wider than the line is treated as n, so huge radii cannot
// overflow the index arithmetic.
func Neighbors(i, n, window int) []int {
	w := min(max(window, 0), n)
	lo := max(0, i-w)
	hi := min(n-1, i+w)
	out := make([]int, 0, max(0, hi-lo))
	for j := lo; j <= hi; j++ {
		if j != i {
			out = append(out, j)
		}
	}
	return out
}

// Build connects every agent to the agents within window positions of it.
// The relation is symmetric because the distance predicate is.
func Build(agents []*agent.Agent, window int) error {
	if window < 0 {
		return fmt.Errorf("neighbor window %d: %w", window, model.ErrInvalidArgument)
	}
	n := len(agents)
	for i, a := range agents {
		idx := Neighbors(i, n, window)
		ns := make([]*agent.Agent, len(idx))
		for k, j := range idx {
			ns[k] = agents[j]
		}
		a.SetNeighbors(ns)
	}
	return nil
}

// Adjacency returns the neighbor relation as a boolean matrix.
func Adjacency(agents []*agent.Agent) [][]bool {
	pos := make(map[*agent.Agent]int, len(agents))
	for i, a := range agents {
		pos[a] = i
	}
	adj := make([][]bool, len(agents))
	for i, a := range agents {
		adj[i] = make([]bool, len(agents))
		for _, nb := range a.Neighbors() {
			if j, ok := pos[nb]; ok {
				adj[i][j] = true
			}
		}
	}
	return adj
}
