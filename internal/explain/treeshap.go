package explain

import "github.com/miradorstack/credit-risk/internal/inference"

// pathElement tracks one feature on the unique path from the root, with the
// fraction of "zero" (feature unknown) and "one" (feature follows x) paths that
// flow through it, and the permutation weight of the subset size at its slot.
type pathElement struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

// treeShap accumulates path-dependent Shapley values for a single tree into phi.
// Values are on the leaf (margin) scale and sum to leaf(x) - E[leaf].
func treeShap(tree inference.Tree, x []float64, phi []float64) {
	recurse(tree, x, phi, 0, nil, 1, 1, -1)
}

func recurse(tree inference.Tree, x, phi []float64, nodeIdx int, parent []pathElement, zero, one float64, feature int) {
	path := make([]pathElement, len(parent), len(parent)+1)
	copy(path, parent)
	path = extendPath(path, zero, one, feature)

	node := tree.Nodes[nodeIdx]
	if node.IsLeaf() {
		for i := 1; i < len(path); i++ {
			w := unwoundPathSum(path, i)
			el := path[i]
			phi[el.feature] += w * (el.one - el.zero) * node.Leaf
		}
		return
	}

	hot := tree.Next(node, x)
	cold := node.Left
	if hot == node.Left {
		cold = node.Right
	}
	hotZero := tree.Nodes[hot].Cover / node.Cover
	coldZero := tree.Nodes[cold].Cover / node.Cover

	// A feature already on the path is undone so the split can be redone here.
	incomingZero, incomingOne := 1.0, 1.0
	for k := 1; k < len(path); k++ {
		if path[k].feature == node.Feature {
			incomingZero = path[k].zero
			incomingOne = path[k].one
			path = unwindPath(path, k)
			break
		}
	}

	recurse(tree, x, phi, hot, path, hotZero*incomingZero, incomingOne, node.Feature)
	recurse(tree, x, phi, cold, path, coldZero*incomingZero, 0, node.Feature)
}

func extendPath(path []pathElement, zero, one float64, feature int) []pathElement {
	d := len(path)
	path = append(path, pathElement{feature: feature, zero: zero, one: one})
	if d == 0 {
		path[0].weight = 1
	}
	for i := d - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / float64(d+1)
		path[i].weight = zero * path[i].weight * float64(d-i) / float64(d+1)
	}
	return path
}

func unwindPath(path []pathElement, idx int) []pathElement {
	d := len(path) - 1
	one := path[idx].one
	zero := path[idx].zero
	next := path[d].weight

	for i := d - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * float64(d+1) / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(d-i)/float64(d+1)
		} else {
			path[i].weight = path[i].weight * float64(d+1) / (zero * float64(d-i))
		}
	}
	// Weights stay in place; only the feature bookkeeping shifts left.
	for i := idx; i < d; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
	return path[:d]
}

func unwoundPathSum(path []pathElement, idx int) float64 {
	d := len(path) - 1
	one := path[idx].one
	zero := path[idx].zero
	next := path[d].weight
	total := 0.0

	for i := d - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * float64(d+1) / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(d-i)/float64(d+1)
		} else {
			total += path[i].weight / zero / (float64(d-i) / float64(d+1))
		}
	}
	return total
}

// expectedValue is the cover-weighted mean leaf value of the tree.
func expectedValue(tree inference.Tree, nodeIdx int) float64 {
	node := tree.Nodes[nodeIdx]
	if node.IsLeaf() {
		return node.Leaf
	}
	left := tree.Nodes[node.Left]
	right := tree.Nodes[node.Right]
	return (left.Cover*expectedValue(tree, node.Left) + right.Cover*expectedValue(tree, node.Right)) / node.Cover
}
