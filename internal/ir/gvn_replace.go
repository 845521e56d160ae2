package ir

// Replacement driver: for every operand read in the function, ask whether
// a cheaper equivalent is already available - a materialized constant, or
// an existing SSA local holding the identical VnIndex that dominates this
// use - and substitute it in place. This is where folded arithmetic and
// redundant keccak/sender/load computations actually disappear from the
// instruction stream; the replacement phase itself never deletes an
// instruction (only gvn_fixup.go drops region markers); dead code
// elimination, which already runs right after this pass in the pipeline,
// removes whatever is left with no remaining uses.

// foldPureInstruction rewrites inst itself into a ConstantInstruction in
// place when phase 1 already proved its own result folds to a literal - the
// in-place counterpart of tryAsConstant, which only ever redirects *other*
// operand reads. Without this, an instruction computing a fully-constant
// value but whose result is read from nowhere a cheaper dominating local
// could substitute (its own defining site is always the first, and only,
// entry tryAsLocal would find) would never actually materialize as
// `CONST`, silently missing the textbook "5 + 3 folds to 8" case. Because
// ConstantInstruction keeps inst's own Result *Value, every existing
// reader downstream already observes the new literal with no further
// rewriting - only the defining instruction itself changes shape.
func (g *gvnPass) foldPureInstruction(inst Instruction, block *BasicBlock) (bool, Instruction) {
	switch inst.(type) {
	case *ConstantInstruction, *PhiInstruction:
		return false, inst
	}
	result := inst.GetResult()
	if result == nil {
		return false, inst
	}
	idx, ok := g.vi.locals[result]
	if !ok {
		return false, inst
	}
	term, ok := opToPropConst(g.vi.evaluator.concreteOf(idx))
	if !ok {
		return false, inst
	}
	newInst := &ConstantInstruction{
		ID:     g.nextSynthID(),
		Result: result,
		Block:  block,
		Value:  term.Lit,
		Type:   term.Typ,
	}
	result.DefInst = newInst
	return true, newInst
}

// tryAsConstant returns a *Value holding idx's literal value, materializing
// a brand-new ConstantInstruction at the front of block if no existing
// dominating local already holds it. Returns nil when idx doesn't fold, or
// when its folded form carries allocation provenance that must never be
// reused as a literal (spec.md's pointer-provenance-leak rule).
func (g *gvnPass) tryAsConstant(idx VnIndex, block *BasicBlock) *Value {
	if idx == invalidVnIndex {
		return nil
	}
	c := g.vi.evaluator.concreteOf(idx)
	term, ok := opToPropConst(c)
	if !ok {
		return nil
	}
	if v := g.tryAsLocal(idx, block); v != nil {
		return v
	}
	return g.materializeConstant(idx, term, block)
}

// opToPropConst decides whether a folded Concrete is safe to re-materialize
// as a ConstantInstruction: scalars, booleans, and address/string text are
// fine; anything carrying fresh-allocation or storage-address provenance
// is not, because two mentions of that provenance must stay observably
// distinct (or, for storage addresses, we simply don't know the literal
// digest to print). Values of an unsized type (isUnsizedType: only
// SlotsType) are refused as well.
func opToPropConst(c *Concrete) (ConstTerm, bool) {
	if c == nil {
		return ConstTerm{}, false
	}
	if isUnsizedType(c.Typ) {
		return ConstTerm{}, false
	}
	if c.containsAddress() {
		return ConstTerm{}, false
	}
	switch {
	case c.Int != nil:
		return ConstTerm{Typ: c.Typ, Lit: c.Int.String()}, true
	case c.HasBool:
		return ConstTerm{Typ: c.Typ, Lit: c.Bool}, true
	case c.Text != "":
		return ConstTerm{Typ: c.Typ, Lit: c.Text}, true
	default:
		return ConstTerm{}, false
	}
}

// tryAsLocal returns an existing *Value already proven to hold idx that
// strictly dominates the use site (block's first instruction, since every
// call site here either rewrites the very first read of a fresh use or
// inserts into block's head - see materializeConstant). Matches spec.md's
// rule that a value can only be reused from a program point it actually
// dominates.
func (g *gvnPass) tryAsLocal(idx VnIndex, block *BasicBlock) *Value {
	for _, candidate := range g.vi.revLocals[idx] {
		if g.dominatesBlock(candidate, block) {
			return candidate
		}
	}
	return nil
}

// dominatesBlock reports whether candidate's definition strictly dominates
// the start of block (or is defined in block itself, in which case it is
// only usable by later instructions within that same block - approximated
// conservatively here as "same block is fine", since the caller only ever
// resolves operand reads that already follow candidate's definition in
// program order by construction of the reverse postorder walk).
func (g *gvnPass) dominatesBlock(candidate *Value, block *BasicBlock) bool {
	if candidate.DefBlock == nil {
		return true // function parameter: dominates everything
	}
	if candidate.DefBlock == block {
		return true
	}
	return g.dom.StrictlyDominates(candidate.DefBlock, block)
}

// materializeConstant inserts a fresh ConstantInstruction at the front of
// block (after any leading Phis, which must stay first) and records it so
// later uses within a block dominated by this one can reuse it via
// tryAsLocal instead of inserting another copy.
func (g *gvnPass) materializeConstant(idx VnIndex, term ConstTerm, block *BasicBlock) *Value {
	result := &Value{
		ID:       g.nextSynthID(),
		Name:     "gvn_const",
		Type:     term.Typ,
		DefBlock: block,
	}
	inst := &ConstantInstruction{
		ID:     g.nextSynthID(),
		Result: result,
		Block:  block,
		Value:  term.Lit,
		Type:   term.Typ,
	}
	result.DefInst = inst

	insertAt := 0
	for insertAt < len(block.Instructions) {
		if _, isPhi := block.Instructions[insertAt].(*PhiInstruction); !isPhi {
			break
		}
		insertAt++
	}
	block.Instructions = append(block.Instructions, nil)
	copy(block.Instructions[insertAt+1:], block.Instructions[insertAt:])
	block.Instructions[insertAt] = inst

	g.vi.assign(result, idx)
	return result
}

// replaceOperand is the callback handed to visitInstructionOperands /
// visitTerminatorOperands during phase 2: for the operand currently read
// as v, find a cheaper dominating equivalent and mark v as reused when one
// is substituted in its place.
func (g *gvnPass) replaceOperand(v *Value, block *BasicBlock) *Value {
	if v == nil {
		return v
	}
	idx, ok := g.vi.locals[v]
	if !ok {
		return v
	}
	if replacement := g.tryAsConstant(idx, block); replacement != nil && replacement != v {
		g.vi.reusedValues[v] = true
		return replacement
	}
	if replacement := g.tryAsLocal(idx, block); replacement != nil && replacement != v {
		g.vi.reusedValues[v] = true
		return replacement
	}
	return v
}
