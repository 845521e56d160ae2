package ir

// Symbolic value algebra for global value numbering.
//
// A VNValue describes the runtime result of a computation structurally: two
// VNValues that compare equal are guaranteed to produce bitwise-identical
// results, so equality of complex expressions reduces to equality of the
// VnIndex the interner hands back on first insertion.

// VnIndex is a dense handle into the interner's value table.
type VnIndex int

const invalidVnIndex VnIndex = -1

// VNValue is the tagged union of symbolic values the interner can hold.
// Implementations live below, one per variant.
type VNValue interface {
	vnEqual(other VNValue) bool
	vnHash() uint64
}

func hashCombine(h uint64, x uint64) uint64 {
	h ^= x
	h *= 1099511628211
	return h
}

func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h = hashCombine(h, uint64(s[i]))
	}
	return h
}

func hashInt(i int) uint64 { return hashCombine(0, uint64(i)) }

// VNOpaque represents a value we know nothing about: function arguments,
// phi-merged values, external call results, and anything the simplifier
// declines to reason about. The tag makes every instance distinct.
type VNOpaque struct{ Tag uint64 }

func (v VNOpaque) vnEqual(o VNValue) bool { ov, ok := o.(VNOpaque); return ok && ov.Tag == v.Tag }
func (v VNOpaque) vnHash() uint64         { return hashCombine(1, v.Tag) }

// ConstTerm is a literal constant pulled from a ConstantInstruction, plus
// enough type information to fold and re-materialize it. Lit mirrors
// ConstantInstruction.Value's actual shape: the builder stores integer and
// address literals as their decimal/hex text (kanso's U256 does not fit a
// machine word), and booleans as a real Go bool.
type ConstTerm struct {
	Typ Type
	Lit interface{} // string (decimal int / hex address / raw string) | bool
}

// IsDeterministic reports whether repeated evaluation of this literal always
// yields the same bit pattern. It inspects Lit's concrete payload rather than
// assuming one answer for every ConstTerm: uint64, bool, string and [20]byte
// are plain comparable values — the builder re-derives the identical payload
// from the same source literal every time, so equalLit's "==" comparison is
// sound and the interner may collapse repeated mentions into one VnIndex.
// kanso has no literal kind today whose payload is allocated fresh per
// occurrence (a []byte slice, a pointer, anything compared by identity
// instead of content) — integers and addresses are decimal/hex text,
// booleans are Go bools, and module-qualified names are their dotted path
// string. If one is ever added, its Lit type falls through to the default
// case below and is treated as non-deterministic until a real equalLit/hash
// case is written for it, so insertConstant's disambiguator keeps every
// mention distinct (spec Testable Property 5) rather than silently merging
// values that only coincidentally share a Go type.
func (c ConstTerm) IsDeterministic() bool {
	switch c.Lit.(type) {
	case uint64, bool, string, [20]byte:
		return true
	default:
		return false
	}
}

func (c ConstTerm) equalLit(o ConstTerm) bool {
	if c.Typ.String() != o.Typ.String() {
		return false
	}
	switch a := c.Lit.(type) {
	case uint64:
		b, ok := o.Lit.(uint64)
		return ok && a == b
	case bool:
		b, ok := o.Lit.(bool)
		return ok && a == b
	case string:
		b, ok := o.Lit.(string)
		return ok && a == b
	case [20]byte:
		b, ok := o.Lit.([20]byte)
		return ok && a == b
	default:
		return false
	}
}

func (c ConstTerm) hash() uint64 {
	h := hashString(c.Typ.String())
	switch a := c.Lit.(type) {
	case uint64:
		h = hashCombine(h, a)
	case bool:
		if a {
			h = hashCombine(h, 1)
		}
	case string:
		h = hashCombine(h, hashString(a))
	case [20]byte:
		h = hashCombine(h, hashString(string(a[:])))
	}
	return h
}

// VNConstant wraps a possibly-unevaluated constant literal. disambiguator is
// 0 iff the literal is deterministic; otherwise every mention gets a fresh
// counter so non-deterministic constants never collapse to one VnIndex
// (spec Testable Property 5).
type VNConstant struct {
	Term          ConstTerm
	Disambiguator uint64
}

func (v VNConstant) vnEqual(o VNValue) bool {
	ov, ok := o.(VNConstant)
	return ok && v.Disambiguator == ov.Disambiguator && v.Term.equalLit(ov.Term)
}
func (v VNConstant) vnHash() uint64 {
	return hashCombine(hashCombine(2, v.Term.hash()), v.Disambiguator)
}

// VNTuple is a tuple/composite-key literal: all of kanso's aggregate values
// today are tuples (see SPEC_FULL.md §1 on why there is no struct/enum/array
// aggregate shape to track).
type VNTuple struct{ Fields []VnIndex }

func (v VNTuple) vnEqual(o VNValue) bool {
	ov, ok := o.(VNTuple)
	if !ok || len(ov.Fields) != len(v.Fields) {
		return false
	}
	for i, f := range v.Fields {
		if ov.Fields[i] != f {
			return false
		}
	}
	return true
}
func (v VNTuple) vnHash() uint64 {
	h := uint64(3)
	for _, f := range v.Fields {
		h = hashCombine(h, uint64(f))
	}
	return h
}

// VNRepeat is the tuple `(elem, elem, ..., elem)` of length Count, the
// generalization of spec.md's array-repeat value to kanso's tuple-only
// aggregate shape.
type VNRepeat struct {
	Elem  VnIndex
	Count uint64
}

func (v VNRepeat) vnEqual(o VNValue) bool {
	ov, ok := o.(VNRepeat)
	return ok && ov.Elem == v.Elem && ov.Count == v.Count
}
func (v VNRepeat) vnHash() uint64 {
	return hashCombine(hashCombine(4, uint64(v.Elem)), v.Count)
}

// AddressKind distinguishes the two "fresh pointer" shapes this pass mints:
// a freshly-allocated ABI scratch buffer, or the abstract storage address
// minted for a local whose runtime identity cannot be reasoned about.
type AddressKind int

const (
	AddressKindScratch AddressKind = iota
	AddressKindOpaquePointer
)

// VNAddress never compares equal to any other VNAddress, even one built
// from a lexically identical site: Provenance is a fresh counter, mirroring
// spec.md's rule that Ref/AddressOf rvalues are never merged (Testable
// Property 4). In kanso this models the bump-allocated scratch buffer an
// ABIEncU256Instruction mints on every call.
type VNAddress struct {
	Kind       AddressKind
	Provenance uint64
}

func (v VNAddress) vnEqual(o VNValue) bool {
	ov, ok := o.(VNAddress)
	return ok && ov.Provenance == v.Provenance
}
func (v VNAddress) vnHash() uint64 { return hashCombine(5, v.Provenance) }

// VNStorageAddr is the pure, deterministic keccak-style address computed
// from a base storage slot plus zero, one, or two dynamic keys
// (SSTORE/SADDR_MAP1/SADDR_MAP2). Unlike VNAddress this interns and CSEs
// normally: two identical (slot, keys) pairs are the same storage cell,
// which is the teacher's own "kill repeated keccak256(key, slot)" TODO.
type VNStorageAddr struct {
	BaseSlot int
	Keys     []VnIndex
}

func (v VNStorageAddr) vnEqual(o VNValue) bool {
	ov, ok := o.(VNStorageAddr)
	if !ok || ov.BaseSlot != v.BaseSlot || len(ov.Keys) != len(v.Keys) {
		return false
	}
	for i, k := range v.Keys {
		if ov.Keys[i] != k {
			return false
		}
	}
	return true
}
func (v VNStorageAddr) vnHash() uint64 {
	h := hashCombine(14, uint64(v.BaseSlot))
	for _, k := range v.Keys {
		h = hashCombine(h, uint64(k))
	}
	return h
}

// ProjElem is a single projection step applied to a base VNValue.
type ProjElem struct {
	Kind          projKind
	FieldIndex    int // ProjFieldIndex
	ConstantIndex int // ProjConstantIndex
	IndexLocal    VnIndex
}

type projKind int

const (
	ProjDeref projKind = iota
	ProjFieldIndex
	ProjConstantIndex
	ProjIndex
)

// VNProjection is the value obtained by projecting a single step out of a
// base value: field-of-tuple, deref-of-freeze-address, or index-into-tuple.
type VNProjection struct {
	Base VnIndex
	Elem ProjElem
}

func (v VNProjection) vnEqual(o VNValue) bool {
	ov, ok := o.(VNProjection)
	return ok && ov.Base == v.Base && ov.Elem == v.Elem
}
func (v VNProjection) vnHash() uint64 {
	h := hashCombine(6, uint64(v.Base))
	h = hashCombine(h, uint64(v.Elem.Kind))
	h = hashCombine(h, uint64(v.Elem.FieldIndex))
	h = hashCombine(h, uint64(v.Elem.ConstantIndex))
	h = hashCombine(h, uint64(v.Elem.IndexLocal))
	return h
}

// VNDiscriminant reads the tag of an aggregate. Kept for algebra
// completeness; kanso has no multi-variant aggregate today so this variant
// is never produced by the simplifier (see SPEC_FULL.md §1).
type VNDiscriminant struct{ Base VnIndex }

func (v VNDiscriminant) vnEqual(o VNValue) bool {
	ov, ok := o.(VNDiscriminant)
	return ok && ov.Base == v.Base
}
func (v VNDiscriminant) vnHash() uint64 { return hashCombine(7, uint64(v.Base)) }

// VNLen is the length of a tuple/slice value. Never produced today (kanso
// has no runtime-length slice type); kept for completeness.
type VNLen struct{ Base VnIndex }

func (v VNLen) vnEqual(o VNValue) bool { ov, ok := o.(VNLen); return ok && ov.Base == v.Base }
func (v VNLen) vnHash() uint64         { return hashCombine(8, uint64(v.Base)) }

// NullaryOpKind enumerates layout queries with no value operands.
type NullaryOpKind int

const (
	NullaryOpSizeOf NullaryOpKind = iota
	NullaryOpAlignOf
	NullaryOpSender
)

type VNNullaryOp struct {
	Op  NullaryOpKind
	Typ Type
}

func (v VNNullaryOp) vnEqual(o VNValue) bool {
	ov, ok := o.(VNNullaryOp)
	return ok && ov.Op == v.Op && ov.Typ.String() == v.Typ.String()
}
func (v VNNullaryOp) vnHash() uint64 {
	return hashCombine(hashCombine(9, uint64(v.Op)), hashString(v.Typ.String()))
}

type VNUnaryOp struct {
	Op  string
	Arg VnIndex
}

func (v VNUnaryOp) vnEqual(o VNValue) bool {
	ov, ok := o.(VNUnaryOp)
	return ok && ov.Op == v.Op && ov.Arg == v.Arg
}
func (v VNUnaryOp) vnHash() uint64 {
	return hashCombine(hashCombine(10, hashString(v.Op)), uint64(v.Arg))
}

type VNBinaryOp struct {
	Op          string
	Left, Right VnIndex
}

func (v VNBinaryOp) vnEqual(o VNValue) bool {
	ov, ok := o.(VNBinaryOp)
	return ok && ov.Op == v.Op && ov.Left == v.Left && ov.Right == v.Right
}
func (v VNBinaryOp) vnHash() uint64 {
	h := hashCombine(11, hashString(v.Op))
	h = hashCombine(h, uint64(v.Left))
	h = hashCombine(h, uint64(v.Right))
	return h
}

// VNCheckedBinaryOp is the (result, overflow) pair produced by one of
// kanso's CheckedArithInstruction variants (ADD_CHK/SUB_CHK/MUL_CHK/DIV_CHK).
type VNCheckedBinaryOp struct {
	Op          string
	Left, Right VnIndex
}

func (v VNCheckedBinaryOp) vnEqual(o VNValue) bool {
	ov, ok := o.(VNCheckedBinaryOp)
	return ok && ov.Op == v.Op && ov.Left == v.Left && ov.Right == v.Right
}
func (v VNCheckedBinaryOp) vnHash() uint64 {
	h := hashCombine(12, hashString(v.Op))
	h = hashCombine(h, uint64(v.Left))
	h = hashCombine(h, uint64(v.Right))
	return h
}

type VNCast struct {
	Value    VnIndex
	From, To Type
}

func (v VNCast) vnEqual(o VNValue) bool {
	ov, ok := o.(VNCast)
	return ok && ov.Value == v.Value && ov.From.String() == v.From.String() && ov.To.String() == v.To.String()
}
func (v VNCast) vnHash() uint64 {
	h := hashCombine(13, uint64(v.Value))
	h = hashCombine(h, hashString(v.From.String()))
	h = hashCombine(h, hashString(v.To.String()))
	return h
}

// vnInterner hash-conses VNValues and tracks, for each one, which SSA
// registers currently hold it and its opportunistically-folded constant
// form.
type vnInterner struct {
	values    []VNValue
	buckets   map[uint64][]VnIndex
	evaluated []*Concrete

	locals    map[*Value]VnIndex
	revLocals map[VnIndex][]*Value

	reusedValues map[*Value]bool

	nextOpaque *uint64

	evaluator *abstractEvaluator
}

func newVnInterner() *vnInterner {
	// Starts at 1: disambiguator 0 belongs to deterministic constants only.
	counter := uint64(1)
	vi := &vnInterner{
		buckets:      make(map[uint64][]VnIndex),
		locals:       make(map[*Value]VnIndex),
		revLocals:    make(map[VnIndex][]*Value),
		reusedValues: make(map[*Value]bool),
		nextOpaque:   &counter,
	}
	vi.evaluator = newAbstractEvaluator(vi)
	return vi
}

func (vi *vnInterner) get(idx VnIndex) VNValue { return vi.values[idx] }

// insert hash-conses v, returning the existing index if an equal value is
// already present.
func (vi *vnInterner) insert(v VNValue) VnIndex {
	h := v.vnHash()
	for _, idx := range vi.buckets[h] {
		if vi.values[idx].vnEqual(v) {
			return idx
		}
	}
	idx := VnIndex(len(vi.values))
	vi.values = append(vi.values, v)
	vi.buckets[h] = append(vi.buckets[h], idx)
	vi.evaluated = append(vi.evaluated, vi.evaluator.evalToConst(idx))
	return idx
}

// newOpaque mints a value known to equal nothing else. Returns invalidVnIndex
// once opaque minting has been disabled for phase 2.
func (vi *vnInterner) newOpaque() (VnIndex, bool) {
	if vi.nextOpaque == nil {
		return invalidVnIndex, false
	}
	tag := *vi.nextOpaque
	*vi.nextOpaque++
	return vi.insert(VNOpaque{Tag: tag}), true
}

func (vi *vnInterner) newAddress(kind AddressKind) (VnIndex, bool) {
	if vi.nextOpaque == nil {
		return invalidVnIndex, false
	}
	tag := *vi.nextOpaque
	*vi.nextOpaque++
	return vi.insert(VNAddress{Kind: kind, Provenance: tag}), true
}

// insertConstant wraps a literal in VNConstant, assigning a disambiguator
// when it is not deterministic.
func (vi *vnInterner) insertConstant(term ConstTerm) (VnIndex, bool) {
	disambiguator := uint64(0)
	if !term.IsDeterministic() {
		if vi.nextOpaque == nil {
			return invalidVnIndex, false
		}
		disambiguator = *vi.nextOpaque
		*vi.nextOpaque++
	}
	return vi.insert(VNConstant{Term: term, Disambiguator: disambiguator}), true
}

// assign records that local now holds idx, the SSA-register analogue of
// spec.md's VnState::assign.
func (vi *vnInterner) assign(local *Value, idx VnIndex) {
	vi.locals[local] = idx
	if !isUnsizedType(local.Type) {
		vi.revLocals[idx] = append(vi.revLocals[idx], local)
	}
}

// isUnsizedType reports whether values of typ cannot be cheaply copied into
// a fresh use site. The only such type is SlotsType (a storage mapping
// handle); every other IR type, StorageAddrType included, is sized. assign
// uses it for spec.md §4.1's "only if the local's type is sized" rule.
func isUnsizedType(t Type) bool {
	switch t.(type) {
	case *SlotsType:
		return true
	default:
		return false
	}
}
