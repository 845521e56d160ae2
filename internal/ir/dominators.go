package ir

// Dominator tree construction for a single function's CFG, computed with the
// Cooper/Harvey/Kennedy "A Simple, Fast Dominance Algorithm" iterative
// approach: repeatedly intersect each block's predecessors' immediate
// dominators in reverse postorder until the idom assignment stops changing.

// DominatorTree is an immutable snapshot of one function's immediate
// dominators, keyed by *BasicBlock identity. It is built once per pass
// invocation and cloned before any block is mutated, so later CFG edits
// never perturb a tree already in use.
type DominatorTree struct {
	entry *BasicBlock
	idom  map[*BasicBlock]*BasicBlock
	order map[*BasicBlock]int // reverse postorder index, for fast ordering checks
}

// BuildDominatorTree computes the dominator tree of fn's entry block. Blocks
// unreachable from the entry are simply absent from the tree; queries about
// them report no dominance relationship.
func BuildDominatorTree(fn *Function) *DominatorTree {
	t := &DominatorTree{idom: make(map[*BasicBlock]*BasicBlock)}
	if fn == nil || fn.Entry == nil {
		return t
	}
	t.entry = fn.Entry

	rpo := reversePostorder(fn.Entry)
	t.order = make(map[*BasicBlock]int, len(rpo))
	for i, b := range rpo {
		t.order[b] = i
	}

	t.idom[fn.Entry] = fn.Entry
	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == fn.Entry {
				continue
			}
			var newIdom *BasicBlock
			for _, p := range b.Predecessors {
				if _, ok := t.idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = t.intersect(newIdom, p)
			}
			if newIdom == nil {
				continue
			}
			if t.idom[b] != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}

	for b, d := range t.idom {
		if b == fn.Entry {
			continue
		}
		d.Dominates = append(d.Dominates, b)
		b.DominatedBy = d
	}

	return t
}

func (t *DominatorTree) intersect(a, b *BasicBlock) *BasicBlock {
	for a != b {
		for t.order[a] > t.order[b] {
			a = t.idom[a]
		}
		for t.order[b] > t.order[a] {
			b = t.idom[b]
		}
	}
	return a
}

// StrictlyDominates reports whether a strictly dominates b (a != b, and
// every path from the entry to b passes through a). Unreachable blocks
// never dominate or are dominated by anything.
func (t *DominatorTree) StrictlyDominates(a, b *BasicBlock) bool {
	if a == b {
		return false
	}
	cur, ok := t.idom[b]
	if !ok {
		return false
	}
	for cur != t.entry {
		if cur == a {
			return true
		}
		cur = t.idom[cur]
	}
	return cur == a && a != b
}

// Clone returns an independent copy of the tree. Mutating the function's CFG
// after cloning never affects a previously cloned tree, satisfying the
// requirement that dominance facts computed before a rewrite stay valid
// while the rewrite is in progress.
func (t *DominatorTree) Clone() *DominatorTree {
	c := &DominatorTree{
		entry: t.entry,
		idom:  make(map[*BasicBlock]*BasicBlock, len(t.idom)),
		order: make(map[*BasicBlock]int, len(t.order)),
	}
	for k, v := range t.idom {
		c.idom[k] = v
	}
	for k, v := range t.order {
		c.order[k] = v
	}
	return c
}

// reversePostorder returns fn's blocks reachable from entry in reverse
// postorder, the traversal order both dominator construction and the GVN
// replacement phase rely on.
func reversePostorder(entry *BasicBlock) []*BasicBlock {
	visited := make(map[*BasicBlock]bool)
	var post []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Successors {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)

	rpo := make([]*BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}
