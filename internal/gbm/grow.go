package gbm

import (
	"math"
	"sort"
)

// grower builds one tree on the gradients of the rows in a bag.
type grower struct {
	params   Params
	x        [][]float64
	grad     []float64
	features []int
}

type candidate struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

type leaf struct {
	rows   []int
	depth  int
	sumG   float64
	parent int
	isLeft bool
	split  *candidate
}

func thresholdL1(g, l1 float64) float64 {
	if g > l1 {
		return g - l1
	}
	if g < -l1 {
		return g + l1
	}
	return 0
}

func (g *grower) score(sumG, sumH float64) float64 {
	t := thresholdL1(sumG, g.params.LambdaL1)
	return t * t / (sumH + g.params.LambdaL2)
}

func (g *grower) output(sumG, sumH float64) float64 {
	return -thresholdL1(sumG, g.params.LambdaL1) / (sumH + g.params.LambdaL2) * g.params.LearningRate
}

// grow splits leaves best-first until NumLeaves is reached or no split has
// positive gain.
func (g *grower) grow(rows []int) Tree {
	root := &leaf{rows: rows, parent: -1, sumG: g.sum(rows)}
	root.split = g.findSplit(root)

	var tree Tree
	leaves := []*leaf{root}

	for len(leaves) < g.params.NumLeaves {
		best := -1
		for i, l := range leaves {
			if l.split == nil {
				continue
			}
			if best < 0 || l.split.gain > leaves[best].split.gain {
				best = i
			}
		}
		if best < 0 {
			break
		}

		l := leaves[best]
		s := l.split

		nodeIdx := len(tree.Nodes)
		rightIdx := len(leaves)
		tree.Nodes = append(tree.Nodes, Node{
			Feature:   s.feature,
			Threshold: s.threshold,
			Gain:      s.gain,
			Left:      ^best,
			Right:     ^rightIdx,
		})
		if l.parent >= 0 {
			if l.isLeft {
				tree.Nodes[l.parent].Left = nodeIdx
			} else {
				tree.Nodes[l.parent].Right = nodeIdx
			}
		}

		left := &leaf{rows: s.left, depth: l.depth + 1, sumG: g.sum(s.left), parent: nodeIdx, isLeft: true}
		right := &leaf{rows: s.right, depth: l.depth + 1, sumG: g.sum(s.right), parent: nodeIdx}
		left.split = g.findSplit(left)
		right.split = g.findSplit(right)

		leaves[best] = left
		leaves = append(leaves, right)
	}

	tree.Leaves = make([]float64, len(leaves))
	for i, l := range leaves {
		tree.Leaves[i] = g.output(l.sumG, float64(len(l.rows)))
	}
	return tree
}

func (g *grower) sum(rows []int) float64 {
	var s float64
	for _, r := range rows {
		s += g.grad[r]
	}
	return s
}

// findSplit scans every sampled feature for the threshold with the largest
// gain. The squared loss hessian is 1 per row, so hessian sums are counts.
func (g *grower) findSplit(l *leaf) *candidate {
	minData := g.params.MinDataInLeaf
	if g.params.maxDepthLimited() && l.depth >= g.params.MaxDepth {
		return nil
	}
	if len(l.rows) < 2*minData {
		return nil
	}

	total := float64(len(l.rows))
	parent := g.score(l.sumG, total)

	var best *candidate
	sorted := make([]int, 0, len(l.rows))

	for _, f := range g.features {
		sorted = sorted[:0]
		for _, r := range l.rows {
			if !math.IsNaN(g.x[r][f]) {
				sorted = append(sorted, r)
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool { return g.x[sorted[i]][f] < g.x[sorted[j]][f] })

		var leftG float64
		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			leftG += g.grad[r]

			v, next := g.x[r][f], g.x[sorted[i+1]][f]
			if v == next {
				continue
			}

			leftN := i + 1
			rightN := len(l.rows) - leftN
			if leftN < minData || rightN < minData {
				continue
			}
			if float64(leftN) < g.params.MinSumHessianInLeaf || float64(rightN) < g.params.MinSumHessianInLeaf {
				continue
			}

			gain := g.score(leftG, float64(leftN)) + g.score(l.sumG-leftG, total-float64(leftN)) - parent
			if gain > 0 && (best == nil || gain > best.gain) {
				best = &candidate{feature: f, threshold: v, gain: gain}
			}
		}
	}

	if best == nil {
		return nil
	}

	for _, r := range l.rows {
		if g.x[r][best.feature] <= best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best
}
