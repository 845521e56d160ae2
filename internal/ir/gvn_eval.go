package ir

import "math/big"

// Abstract evaluator: opportunistically folds a VNValue into a concrete,
// materializable literal. Folding is attempted once, at insertion time, and
// the result is cached in vnInterner.evaluated so later lookups are O(1).
//
// kanso's builder stores every U256 literal as decimal text (buildConstant
// never stores a machine uint64 - see builder.go's ast.LiteralExpr handling),
// which is also why the teacher's own ConstantFolding.computeBinaryOp, which
// type-asserts operands straight to uint64, never actually fired on real
// IR: every constants[...] entry it tracked was a string, so its uint64
// assertions silently failed. This evaluator folds the real representation
// with math/big instead of repeating that dead code path.

// Concrete is a fully-evaluated literal produced by folding. Exactly one of
// Int/Bool/Text/Pair/Tuple is meaningful, selected by Typ's shape; Address
// marks a concrete whose identity depends on a runtime memory allocation
// rather than a literal bit pattern, which excludes it from ever being
// materialized back into a ConstantInstruction (see opToPropConst).
type Concrete struct {
	Typ     Type
	Int     *big.Int // IntType
	HasBool bool
	Bool    bool // BoolType
	Text    string // StringType / AddressType (hex text, as the builder stores it)
	Pair    *[2]*big.Int // CheckedBinaryOp (result, ok-as-0-or-1)
	Tuple   []*Concrete
	Address bool
}

func concreteInt(t Type, v *big.Int) *Concrete { return &Concrete{Typ: t, Int: v} }
func concreteBool(v bool) *Concrete             { return &Concrete{Typ: &BoolType{}, HasBool: true, Bool: v} }

func (c *Concrete) asBool() (bool, bool) {
	if c == nil || !c.HasBool {
		return false, false
	}
	return c.Bool, true
}

func (c *Concrete) asInt() (*big.Int, bool) {
	if c == nil || c.Int == nil {
		return nil, false
	}
	return c.Int, true
}

// containsAddress reports whether c (or any of its tuple fields, transitively)
// carries fresh-allocation provenance, disqualifying it from being folded
// back into a literal constant.
func (c *Concrete) containsAddress() bool {
	if c == nil {
		return false
	}
	if c.Address {
		return true
	}
	for _, f := range c.Tuple {
		if f.containsAddress() {
			return true
		}
	}
	return false
}

type abstractEvaluator struct {
	vi *vnInterner
}

func newAbstractEvaluator(vi *vnInterner) *abstractEvaluator { return &abstractEvaluator{vi: vi} }

// concreteOf returns the already-computed fold for idx. Valid only after idx
// has been inserted.
func (e *abstractEvaluator) concreteOf(idx VnIndex) *Concrete {
	if int(idx) < 0 || int(idx) >= len(e.vi.evaluated) {
		return nil
	}
	return e.vi.evaluated[idx]
}

// evalToConst folds the value just inserted at the interner's newest slot.
// Called exactly once per distinct VNValue, from vnInterner.insert, mirroring
// spec.md's eval_to_const.
func (e *abstractEvaluator) evalToConst(idx VnIndex) *Concrete {
	switch v := e.vi.values[idx].(type) {
	case VNOpaque:
		return nil
	case VNAddress:
		return &Concrete{Typ: &AddressType{}, Address: true}
	case VNStorageAddr:
		// Deterministic and CSE-able (see vnEqual above), but we have no
		// keccak256 implementation to compute its actual digest, so it
		// never materializes as a literal constant.
		return &Concrete{Typ: &StorageAddrType{}, Address: true}
	case VNConstant:
		return e.foldConstant(v.Term)
	case VNTuple:
		fields := make([]*Concrete, len(v.Fields))
		for i, f := range v.Fields {
			c := e.concreteOf(f)
			if c == nil {
				return nil
			}
			fields[i] = c
		}
		return &Concrete{Typ: &TupleType{Elements: typesOf(fields)}, Tuple: fields}
	case VNRepeat:
		elem := e.concreteOf(v.Elem)
		if elem == nil {
			return nil
		}
		if v.Count > 64 {
			return nil // refuse to materialize unreasonably large literal tuples
		}
		fields := make([]*Concrete, v.Count)
		for i := range fields {
			fields[i] = elem
		}
		return &Concrete{Typ: &TupleType{Elements: typesOf(fields)}, Tuple: fields}
	case VNProjection:
		return e.foldProjection(v)
	case VNDiscriminant:
		base := e.concreteOf(v.Base)
		if base == nil || len(base.Tuple) == 0 {
			return nil
		}
		return base.Tuple[0]
	case VNLen:
		return nil
	case VNNullaryOp:
		return e.foldNullaryOp(v)
	case VNUnaryOp:
		return e.foldUnaryOp(v)
	case VNBinaryOp:
		return e.foldBinaryOp(v.Op, v.Left, v.Right)
	case VNCheckedBinaryOp:
		return e.foldCheckedBinaryOp(v)
	case VNCast:
		return e.foldCast(v)
	default:
		return nil
	}
}

func typesOf(cs []*Concrete) []Type {
	ts := make([]Type, len(cs))
	for i, c := range cs {
		ts[i] = c.Typ
	}
	return ts
}

func (e *abstractEvaluator) foldConstant(term ConstTerm) *Concrete {
	switch lit := term.Lit.(type) {
	case bool:
		return concreteBool(lit)
	case string:
		switch term.Typ.(type) {
		case *IntType:
			n, ok := new(big.Int).SetString(lit, 0)
			if !ok {
				return nil
			}
			return concreteInt(term.Typ, n)
		case *BoolType:
			return concreteBool(lit == "true")
		default:
			// AddressType / StringType literals: the text itself is the
			// constant's identity, never numerically folded.
			return &Concrete{Typ: term.Typ, Text: lit}
		}
	default:
		return nil
	}
}

func (e *abstractEvaluator) foldProjection(v VNProjection) *Concrete {
	base := e.concreteOf(v.Base)
	if base == nil {
		return nil
	}
	switch v.Elem.Kind {
	case ProjFieldIndex, ProjConstantIndex:
		idx := v.Elem.FieldIndex
		if v.Elem.Kind == ProjConstantIndex {
			idx = v.Elem.ConstantIndex
		}
		if idx < 0 || idx >= len(base.Tuple) {
			return nil
		}
		return base.Tuple[idx]
	case ProjIndex, ProjDeref:
		// Deref only folds when the base resolves to a concrete calldata
		// value, which this evaluator never produces (calldata bytes are
		// unknown at compile time); kept for algebra completeness.
		return nil
	default:
		return nil
	}
}

func (e *abstractEvaluator) foldNullaryOp(v VNNullaryOp) *Concrete {
	switch v.Op {
	case NullaryOpSizeOf, NullaryOpAlignOf:
		size, ok := staticSize(v.Typ)
		if !ok {
			return nil
		}
		return concreteInt(&IntType{Bits: 64}, big.NewInt(int64(size)))
	case NullaryOpSender:
		// msg.sender is a real runtime value, never a compile-time literal.
		return nil
	default:
		return nil
	}
}

// staticSize reports the EVM word-aligned byte size of a kanso value type,
// or false when the type has no compile-time-known size (storage handles).
func staticSize(t Type) (int, bool) {
	switch tt := t.(type) {
	case *IntType:
		return tt.Bits / 8, true
	case *BoolType:
		return 1, true
	case *AddressType:
		return 20, true
	case *TupleType:
		total := 0
		for _, elem := range tt.Elements {
			s, ok := staticSize(elem)
			if !ok {
				return 0, false
			}
			total += s
		}
		return total, true
	default:
		return 0, false
	}
}

func (e *abstractEvaluator) foldUnaryOp(v VNUnaryOp) *Concrete {
	arg := e.concreteOf(v.Arg)
	if arg == nil {
		return nil
	}
	switch v.Op {
	case "!":
		b, ok := arg.asBool()
		if !ok {
			return nil
		}
		return concreteBool(!b)
	case "-":
		n, ok := arg.asInt()
		if !ok {
			return nil
		}
		return concreteInt(arg.Typ, new(big.Int).Neg(n))
	default:
		return nil
	}
}

func (e *abstractEvaluator) foldBinaryOp(op string, leftIdx, rightIdx VnIndex) *Concrete {
	left := e.concreteOf(leftIdx)
	right := e.concreteOf(rightIdx)
	if left == nil || right == nil {
		return nil
	}
	if lv, lok := left.asInt(); lok {
		if rv, rok := right.asInt(); rok {
			return computeIntOp(op, lv, rv, resultType(op, left.Typ))
		}
	}
	if lv, lok := left.asBool(); lok {
		if rv, rok := right.asBool(); rok {
			return computeBoolOp(op, lv, rv)
		}
	}
	return nil
}

func resultType(op string, operandType Type) Type {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return &BoolType{}
	default:
		return operandType
	}
}

// computeIntOp ports ConstantFolding.computeBinaryOp's operator table to
// arbitrary-precision integers, since kanso's U256 literals don't fit a
// machine word.
func computeIntOp(op string, l, r *big.Int, resTyp Type) *Concrete {
	switch op {
	case "+":
		return concreteInt(resTyp, new(big.Int).Add(l, r))
	case "-":
		if l.Cmp(r) >= 0 {
			return concreteInt(resTyp, new(big.Int).Sub(l, r))
		}
		return nil
	case "*":
		return concreteInt(resTyp, new(big.Int).Mul(l, r))
	case "/":
		if r.Sign() != 0 {
			return concreteInt(resTyp, new(big.Int).Quo(l, r))
		}
		return nil
	case "%":
		if r.Sign() != 0 {
			return concreteInt(resTyp, new(big.Int).Rem(l, r))
		}
		return nil
	case "==":
		return concreteBool(l.Cmp(r) == 0)
	case "!=":
		return concreteBool(l.Cmp(r) != 0)
	case "<":
		return concreteBool(l.Cmp(r) < 0)
	case "<=":
		return concreteBool(l.Cmp(r) <= 0)
	case ">":
		return concreteBool(l.Cmp(r) > 0)
	case ">=":
		return concreteBool(l.Cmp(r) >= 0)
	case "&":
		return concreteInt(resTyp, new(big.Int).And(l, r))
	case "|":
		return concreteInt(resTyp, new(big.Int).Or(l, r))
	case "^":
		return concreteInt(resTyp, new(big.Int).Xor(l, r))
	default:
		return nil
	}
}

func computeBoolOp(op string, l, r bool) *Concrete {
	switch op {
	case "&&":
		return concreteBool(l && r)
	case "||":
		return concreteBool(l || r)
	case "==":
		return concreteBool(l == r)
	case "!=":
		return concreteBool(l != r)
	default:
		return nil
	}
}

// foldCheckedBinaryOp folds a CheckedArithInstruction's (result, overflow)
// pair: ADD/MUL overflow when the unchecked value would exceed the
// operand's declared bit width, SUB/DIV "overflow" is underflow/div-by-zero.
func (e *abstractEvaluator) foldCheckedBinaryOp(v VNCheckedBinaryOp) *Concrete {
	left := e.concreteOf(v.Left)
	right := e.concreteOf(v.Right)
	if left == nil || right == nil {
		return nil
	}
	l, lok := left.asInt()
	r, rok := right.asInt()
	if !lok || !rok {
		return nil
	}
	bits := 256
	if it, ok := left.Typ.(*IntType); ok {
		bits = it.Bits
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))

	var result *big.Int
	ok := false
	switch v.Op {
	case "ADD_CHK":
		sum := new(big.Int).Add(l, r)
		ok = sum.Cmp(limit) < 0
		result = new(big.Int).Mod(sum, limit)
	case "SUB_CHK":
		ok = l.Cmp(r) >= 0
		if ok {
			result = new(big.Int).Sub(l, r)
		} else {
			result = big.NewInt(0)
		}
	case "MUL_CHK":
		prod := new(big.Int).Mul(l, r)
		ok = prod.Cmp(limit) < 0
		result = new(big.Int).Mod(prod, limit)
	case "DIV_CHK":
		ok = r.Sign() != 0
		if ok {
			result = new(big.Int).Quo(l, r)
		} else {
			result = big.NewInt(0)
		}
	default:
		return nil
	}
	okInt := big.NewInt(0)
	if ok {
		okInt = big.NewInt(1)
	}
	return &Concrete{Typ: left.Typ, Pair: &[2]*big.Int{result, okInt}}
}

func (e *abstractEvaluator) foldCast(v VNCast) *Concrete {
	arg := e.concreteOf(v.Value)
	if arg == nil {
		return nil
	}
	switch to := v.To.(type) {
	case *IntType:
		n, ok := arg.asInt()
		if !ok {
			if b, bok := arg.asBool(); bok {
				if b {
					n = big.NewInt(1)
				} else {
					n = big.NewInt(0)
				}
			} else {
				return nil
			}
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(to.Bits))
		return concreteInt(v.To, new(big.Int).Mod(n, limit))
	case *BoolType:
		n, ok := arg.asInt()
		if !ok {
			return nil
		}
		return concreteBool(n.Sign() != 0)
	default:
		return nil
	}
}
