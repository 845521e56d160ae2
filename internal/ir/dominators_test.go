package ir

import "testing"

// linkBlocks wires predecessor/successor edges for a straight-line or
// branching sequence built by hand in these tests.
func linkBlocks(pred, succ *BasicBlock) {
	pred.Successors = append(pred.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, pred)
}

func TestBuildDominatorTree_StraightLine(t *testing.T) {
	entry := &BasicBlock{Label: "entry", Terminator: &JumpTerminator{}}
	mid := &BasicBlock{Label: "mid", Terminator: &JumpTerminator{}}
	exit := &BasicBlock{Label: "exit", Terminator: &ReturnTerminator{}}

	entry.Terminator.(*JumpTerminator).Target = mid
	mid.Terminator.(*JumpTerminator).Target = exit
	linkBlocks(entry, mid)
	linkBlocks(mid, exit)

	fn := &Function{Name: "f", Entry: entry, Blocks: []*BasicBlock{entry, mid, exit}}
	dom := BuildDominatorTree(fn)

	if !dom.StrictlyDominates(entry, mid) {
		t.Error("entry should strictly dominate mid")
	}
	if !dom.StrictlyDominates(entry, exit) {
		t.Error("entry should strictly dominate exit")
	}
	if !dom.StrictlyDominates(mid, exit) {
		t.Error("mid should strictly dominate exit")
	}
	if dom.StrictlyDominates(exit, entry) {
		t.Error("exit must not dominate entry")
	}
	if dom.StrictlyDominates(entry, entry) {
		t.Error("a block never strictly dominates itself")
	}
}

func TestBuildDominatorTree_Diamond(t *testing.T) {
	entry := &BasicBlock{Label: "entry"}
	left := &BasicBlock{Label: "left", Terminator: &JumpTerminator{}}
	right := &BasicBlock{Label: "right", Terminator: &JumpTerminator{}}
	join := &BasicBlock{Label: "join", Terminator: &ReturnTerminator{}}

	entry.Terminator = &BranchTerminator{TrueBlock: left, FalseBlock: right}
	left.Terminator.(*JumpTerminator).Target = join
	right.Terminator.(*JumpTerminator).Target = join

	linkBlocks(entry, left)
	linkBlocks(entry, right)
	linkBlocks(left, join)
	linkBlocks(right, join)

	fn := &Function{Name: "f", Entry: entry, Blocks: []*BasicBlock{entry, left, right, join}}
	dom := BuildDominatorTree(fn)

	if !dom.StrictlyDominates(entry, join) {
		t.Error("entry should strictly dominate join in a diamond")
	}
	if dom.StrictlyDominates(left, join) {
		t.Error("left alone must not dominate join - right is another path in")
	}
	if dom.StrictlyDominates(right, join) {
		t.Error("right alone must not dominate join - left is another path in")
	}
	if !dom.StrictlyDominates(entry, left) || !dom.StrictlyDominates(entry, right) {
		t.Error("entry should strictly dominate both diamond arms")
	}
}

func TestBuildDominatorTree_Loop(t *testing.T) {
	entry := &BasicBlock{Label: "entry", Terminator: &JumpTerminator{}}
	header := &BasicBlock{Label: "header"}
	body := &BasicBlock{Label: "body", Terminator: &JumpTerminator{}}
	exit := &BasicBlock{Label: "exit", Terminator: &ReturnTerminator{}}

	entry.Terminator.(*JumpTerminator).Target = header
	header.Terminator = &BranchTerminator{TrueBlock: body, FalseBlock: exit}
	body.Terminator.(*JumpTerminator).Target = header

	linkBlocks(entry, header)
	linkBlocks(header, body)
	linkBlocks(body, header) // back edge
	linkBlocks(header, exit)

	fn := &Function{Name: "f", Entry: entry, Blocks: []*BasicBlock{entry, header, body, exit}}
	dom := BuildDominatorTree(fn)

	if !dom.StrictlyDominates(header, body) {
		t.Error("header should strictly dominate the loop body")
	}
	if !dom.StrictlyDominates(header, exit) {
		t.Error("header should strictly dominate the loop exit")
	}
	if dom.StrictlyDominates(body, header) {
		t.Error("the loop body must not dominate its own header")
	}
}

func TestDominatorTreeClone_Independent(t *testing.T) {
	entry := &BasicBlock{Label: "entry", Terminator: &JumpTerminator{}}
	exit := &BasicBlock{Label: "exit", Terminator: &ReturnTerminator{}}
	entry.Terminator.(*JumpTerminator).Target = exit
	linkBlocks(entry, exit)

	fn := &Function{Name: "f", Entry: entry, Blocks: []*BasicBlock{entry, exit}}
	dom := BuildDominatorTree(fn)
	clone := dom.Clone()

	if !clone.StrictlyDominates(entry, exit) {
		t.Error("clone should preserve dominance facts")
	}
}
