package ir

// The operand visitors below generalize the ad hoc replace-in-instruction/
// replace-in-terminator switches CommonSubexpressionElimination used to
// duplicate. Anything that
// needs to inspect or substitute every *Value an instruction reads goes
// through visitInstructionOperands/visitTerminatorOperands instead of
// growing its own type switch.

// operandVisitFn receives each operand read by an instruction and returns
// the value that should replace it (itself, to leave it unchanged).
type operandVisitFn func(v *Value) *Value

// visitInstructionOperands rewrites every operand position of inst in place
// by calling f on it. Instructions with no operands are left untouched.
func visitInstructionOperands(inst Instruction, f operandVisitFn) {
	switch i := inst.(type) {
	case *PhiInstruction:
		for b, v := range i.Inputs {
			if v != nil {
				i.Inputs[b] = f(v)
			}
		}
	case *LoadInstruction:
		i.Address = f(i.Address)
	case *StoreInstruction:
		i.Address = f(i.Address)
		i.Value = f(i.Value)
	case *StorageLoadInstruction:
		i.Slot = f(i.Slot)
	case *StorageStoreInstruction:
		i.Slot = f(i.Slot)
		i.Value = f(i.Value)
	case *KeyedStorageLoadInstruction:
		i.Key = f(i.Key)
	case *KeyedStorageStoreInstruction:
		i.Key = f(i.Key)
		i.Value = f(i.Value)
	case *BinaryInstruction:
		i.Left = f(i.Left)
		i.Right = f(i.Right)
	case *CallInstruction:
		for j, a := range i.Args {
			i.Args[j] = f(a)
		}
	case *ConstantInstruction:
		// no operands
	case *SenderInstruction:
		// no operands
	case *EmitInstruction:
		for j, a := range i.Args {
			i.Args[j] = f(a)
		}
	case *RequireInstruction:
		i.Condition = f(i.Condition)
		if i.Error != nil {
			i.Error = f(i.Error)
		}
	case *StorageAddrInstruction:
		for j, k := range i.Keys {
			i.Keys[j] = f(k)
		}
	case *CheckedArithInstruction:
		i.Left = f(i.Left)
		i.Right = f(i.Right)
	case *AssumeInstruction:
		i.Predicate = f(i.Predicate)
	case *LogInstruction:
		if i.Signature != nil {
			i.Signature = f(i.Signature)
		}
		for j, a := range i.TopicArgs {
			i.TopicArgs[j] = f(a)
		}
		if i.DataPtr != nil {
			i.DataPtr = f(i.DataPtr)
		}
		if i.DataLen != nil {
			i.DataLen = f(i.DataLen)
		}
	case *TopicAddrInstruction:
		i.Address = f(i.Address)
	case *ABIEncU256Instruction:
		i.Value = f(i.Value)
	case *EventSignatureInstruction:
		// no operands
	case *RevertInstruction:
		// no operands
	case *RegionLiveInstruction:
		// no operands
	case *RegionDeadInstruction:
		// no operands
	case *AggregateInstruction:
		for j, e := range i.Elements {
			i.Elements[j] = f(e)
		}
	}
}

// visitTerminatorOperands rewrites every operand position of term in place.
func visitTerminatorOperands(term Terminator, f operandVisitFn) {
	switch t := term.(type) {
	case *ReturnTerminator:
		if t.Value != nil {
			t.Value = f(t.Value)
		}
	case *BranchTerminator:
		t.Condition = f(t.Condition)
	case *JumpTerminator:
		// no operands
	}
}
