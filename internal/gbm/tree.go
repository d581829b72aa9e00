package gbm

import "fmt"

// Node is a split of the form x[Feature] <= Threshold. Left and Right index
// Tree.Nodes when non-negative; a negative child c refers to Tree.Leaves[^c].
// Missing values (NaN) always go right.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Gain      float64 `json:"gain"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// Tree is a regression tree stored as flat node and leaf lists. A tree
// without nodes is a single leaf.
type Tree struct {
	Nodes  []Node    `json:"nodes"`
	Leaves []float64 `json:"leaves"`
}

// Evaluate returns the leaf value x falls into.
func (t *Tree) Evaluate(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return t.Leaves[0]
	}

	i := 0
	for {
		n := t.Nodes[i]
		next := n.Right
		if x[n.Feature] <= n.Threshold {
			next = n.Left
		}
		if next < 0 {
			return t.Leaves[^next]
		}
		i = next
	}
}

// NumLeaves is the number of leaves.
func (t *Tree) NumLeaves() int { return len(t.Leaves) }

// validate checks that every index stays in range and that children follow
// their parent, so Evaluate always terminates on a leaf.
func (t *Tree) validate(numFeatures int) error {
	if len(t.Leaves) != len(t.Nodes)+1 {
		return fmt.Errorf("%d nodes need %d leaves, got %d", len(t.Nodes), len(t.Nodes)+1, len(t.Leaves))
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range [0, %d)", i, n.Feature, numFeatures)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child < 0 {
				if ^child >= len(t.Leaves) {
					return fmt.Errorf("node %d: leaf %d out of range", i, ^child)
				}
				continue
			}
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: child node %d out of range", i, child)
			}
		}
	}
	return nil
}
