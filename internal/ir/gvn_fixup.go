package ir

// Storage-statement fixup: once replacement has run, some ABI-encoding
// scratch buffers may have had every one of their uses substituted away by
// a dominating equivalent (values. kanso's storage slots have no stack-
// slot-style lifetime, so the Live/Dead marker pair is the only resource
// the fixup pass needs to reconcile - see SPEC_FULL.md on why this is
// narrower than spec.md's general Move-to-Copy statement rewrite, which has
// no counterpart in an IR where every operand read is already a borrow by
// reference rather than a move.

// fixup removes RegionLive/RegionDead marker pairs whose owning
// ABIEncU256Instruction no longer has any live use of either result.
func (g *gvnPass) fixup() bool {
	owners := g.regionOwners()
	changed := false

	for _, block := range g.fn.Blocks {
		blockChanged := false
		kept := make([]Instruction, 0, len(block.Instructions))
		for _, inst := range block.Instructions {
			if g.isDeadRegionMarker(inst, owners) {
				blockChanged = true
				continue
			}
			kept = append(kept, inst)
		}
		if blockChanged {
			block.Instructions = kept
			changed = true
		}
	}
	return changed
}

// regionOwners maps each MemoryRegion to the single ABIEncU256Instruction
// that allocated it.
func (g *gvnPass) regionOwners() map[*MemoryRegion]*ABIEncU256Instruction {
	owners := make(map[*MemoryRegion]*ABIEncU256Instruction)
	for _, block := range g.fn.Blocks {
		for _, inst := range block.Instructions {
			if enc, ok := inst.(*ABIEncU256Instruction); ok && enc.MemoryRegion != nil {
				owners[enc.MemoryRegion] = enc
			}
		}
	}
	return owners
}

func (g *gvnPass) isDeadRegionMarker(inst Instruction, owners map[*MemoryRegion]*ABIEncU256Instruction) bool {
	var region *MemoryRegion
	switch i := inst.(type) {
	case *RegionLiveInstruction:
		region = i.Region
	case *RegionDeadInstruction:
		region = i.Region
	default:
		return false
	}
	if region == nil {
		return false
	}
	owner, ok := owners[region]
	if !ok {
		return false
	}
	if !g.vi.reusedValues[owner.ResultData] {
		return false
	}
	if owner.ResultLen != nil && !g.vi.reusedValues[owner.ResultLen] {
		return false
	}
	return true
}
