package ir

// GlobalValueNumbering is the top-level optimization pass: dominance-aware
// global value numbering over kanso's SSA IR. It subsumes the old
// ConstantFolding pass (arithmetic on constants now folds through the
// abstract evaluator) and the old CommonSubexpressionElimination pass
// (redundant sender()/storage-address computations now collapse function-
// wide, not just within one block), and additionally removes redundant
// freeze-deref loads and dead ABI-encoding scratch allocations.
type GlobalValueNumbering struct{}

func (g *GlobalValueNumbering) Name() string { return "Global Value Numbering" }

func (g *GlobalValueNumbering) Description() string {
	return "Numbers SSA values by structural equality and replaces redundant computations with dominating equivalents"
}

func (g *GlobalValueNumbering) Apply(program *Program) bool {
	changed := false
	for _, fn := range program.Functions {
		if runGVN(fn) {
			changed = true
		}
	}
	return changed
}

// gvnPass carries the per-function state threaded through
// gvn_simplify.go/gvn_replace.go/gvn_fixup.go.
type gvnPass struct {
	vi      *vnInterner
	dom     *DominatorTree
	fn      *Function
	synthID int
}

func (g *gvnPass) nextSynthID() int {
	g.synthID--
	return g.synthID
}

// runGVN executes the full pass over one function: classify+learn, replace,
// fixup. Returns whether anything in the function's instruction stream
// changed.
func runGVN(fn *Function) bool {
	if fn.Entry == nil || len(fn.Blocks) == 0 {
		return false
	}

	g := &gvnPass{
		vi:  newVnInterner(),
		dom: BuildDominatorTree(fn).Clone(),
		fn:  fn,
	}

	g.classifyAssignments()
	g.learn()

	changed := g.replace()
	if g.fixup() {
		changed = true
	}
	return changed
}

// classifyAssignments seeds the interner with every value kanso's builder
// cannot possibly number: function parameters (true unknowns from GVN's
// point of view) and phi results (merges of paths we don't distinguish,
// the direct analogue of spec.md's terminator-produced opaque values).
func (g *gvnPass) classifyAssignments() {
	for _, p := range g.fn.Params {
		if p.Value == nil {
			continue
		}
		idx, _ := g.vi.newOpaque()
		g.vi.assign(p.Value, idx)
	}
	for _, block := range g.fn.Blocks {
		for _, inst := range block.Instructions {
			if phi, ok := inst.(*PhiInstruction); ok && phi.Result != nil {
				if _, already := g.vi.locals[phi.Result]; already {
					continue
				}
				idx, _ := g.vi.newOpaque()
				g.vi.assign(phi.Result, idx)
			}
		}
	}
}

// learn walks every instruction in reverse postorder and numbers its
// result. Reverse postorder guarantees a block's predecessors (other than
// loop back-edges, already pre-seeded as opaque phi results above) are
// numbered first.
func (g *gvnPass) learn() {
	for _, block := range reversePostorder(g.fn.Entry) {
		for _, inst := range block.Instructions {
			if _, ok := inst.(*PhiInstruction); ok {
				continue // pre-classified above
			}
			idx, ok := g.vi.simplifyValue(inst)
			if !ok {
				continue
			}
			if result := inst.GetResult(); result != nil {
				g.vi.assign(result, idx)
			}
			if enc, isEnc := inst.(*ABIEncU256Instruction); isEnc && enc.ResultLen != nil {
				// ABI_ENC_U256 always emits exactly one 32-byte word; the
				// length operand is a pure constant, not tied to the
				// encode's fresh scratch-pointer provenance.
				lenIdx, _ := g.vi.insertConstant(ConstTerm{Typ: &IntType{Bits: 256}, Lit: "32"})
				g.vi.assign(enc.ResultLen, lenIdx)
			}
		}
	}
}

// replace walks every instruction and terminator again in reverse
// postorder, substituting each operand read with a cheaper dominating
// equivalent when one exists. Disabling opaque minting here (nextOpaque =
// nil) means any operand this walk cannot already resolve from phase 1
// keeps its original value unchanged rather than silently numbering a new
// unknown mid-replacement.
func (g *gvnPass) replace() bool {
	g.vi.nextOpaque = nil
	changed := false
	for _, block := range reversePostorder(g.fn.Entry) {
		for i, inst := range block.Instructions {
			if folded, newInst := g.foldPureInstruction(inst, block); folded {
				block.Instructions[i] = newInst
				changed = true
				continue
			}
			visitInstructionOperands(inst, func(v *Value) *Value {
				r := g.replaceOperand(v, block)
				if r != v {
					changed = true
				}
				return r
			})
		}
		if block.Terminator != nil {
			visitTerminatorOperands(block.Terminator, func(v *Value) *Value {
				r := g.replaceOperand(v, block)
				if r != v {
					changed = true
				}
				return r
			})
		}
	}
	return changed
}

// assignmentDominates reports whether the instruction defining `def`
// strictly dominates the program point occupied by `useBlock`'s inst at
// useIndex - same-block comparisons fall back to instruction index, cross-
// block ones to the cloned dominator tree. Used by tests that want to
// check dominance facts directly against hand-built IR.
func assignmentDominates(dom *DominatorTree, def *Value, useBlock *BasicBlock, useIndex int) bool {
	if def.DefBlock == nil {
		return true
	}
	if def.DefBlock == useBlock {
		defIndex := indexOfInstruction(useBlock, def.DefInst)
		return defIndex >= 0 && defIndex < useIndex
	}
	return dom.StrictlyDominates(def.DefBlock, useBlock)
}

func indexOfInstruction(block *BasicBlock, inst Instruction) int {
	for i, candidate := range block.Instructions {
		if candidate == inst {
			return i
		}
	}
	return -1
}
