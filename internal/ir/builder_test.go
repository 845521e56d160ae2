package ir

import (
	"strings"
	"testing"

	"kanso-opt/internal/ast"
	"kanso-opt/internal/parser"
	"kanso-opt/internal/semantic"
)

// ============================================================================
// Builder Basic Tests
// ============================================================================

func TestNewBuilder(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	if builder == nil {
		t.Fatal("NewBuilder should not return nil")
	}

	if builder.context != context {
		t.Error("Builder context not set correctly")
	}

	if builder.variableStack == nil {
		t.Error("Builder variableStack map should be initialized")
	}

	if builder.globalConstants == nil {
		t.Error("Builder globalConstants map should be initialized")
	}
}

func TestGetOrCreateBooleanGlobalConstants(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// globalConstants map should be initialized but empty initially
	if builder.globalConstants == nil {
		t.Error("Global constants map should be initialized")
	}

	// Test that we can create constants using getOrCreateGlobalConstant
	trueConst := builder.getOrCreateGlobalConstant("true", &BoolType{}, "true")
	if trueConst == nil {
		t.Error("Should be able to create boolean constant")
	}

	falseConst := builder.getOrCreateGlobalConstant("false", &BoolType{}, "false")
	if falseConst == nil {
		t.Error("Should be able to create boolean constant")
	}

	// Verify constants are cached
	if builder.globalConstants["true"] != trueConst {
		t.Error("Boolean constant should be cached")
	}

	if builder.globalConstants["false"] != falseConst {
		t.Error("Boolean constant should be cached")
	}
}

func TestGetOrCreateGlobalConstant(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// Create a new constant
	value1 := builder.getOrCreateGlobalConstant("test_key", &IntType{Bits: 256}, "42")
	if value1 == nil {
		t.Fatal("Should create new constant")
	}

	// Should reuse existing constant
	value2 := builder.getOrCreateGlobalConstant("test_key", &IntType{Bits: 256}, "42")
	if value1 != value2 {
		t.Error("Should reuse existing constant")
	}
}

func TestCreateValue(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)
	// First ensure program is initialized
	builder.program = &Program{} // Initialize directly for testing

	value := builder.createValue("test", &IntType{Bits: 256})
	if value == nil {
		t.Fatal("createValue should not return nil")
	}

	if value.Name != "test_0" {
		t.Errorf("Value name should be 'test_0', got %s", value.Name)
	}

	intType, ok := value.Type.(*IntType)
	if !ok {
		t.Fatal("Value type should be IntType")
	}
	if intType.Bits != 256 {
		t.Errorf("IntType bits should be 256, got %d", intType.Bits)
	}
}

func TestNextInstID(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// First ID should be 0 (increments before returning)
	id1 := builder.nextInstID()
	if id1 != 0 {
		t.Errorf("First ID should be 0, got %d", id1)
	}

	// Second ID should be 1
	id2 := builder.nextInstID()
	if id2 != 1 {
		t.Errorf("Second ID should be 1, got %d", id2)
	}

	// Third ID should be 2
	id3 := builder.nextInstID()
	if id3 != 2 {
		t.Errorf("Third ID should be 2, got %d", id3)
	}
}

func TestBuildLiteralExpr(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// Initialize program and function for testing
	builder.program = &Program{}
	builder.currentFunc = &Function{
		Name:       "test",
		ReturnType: &IntType{Bits: 256},
		Entry: &BasicBlock{
			Label:        "entry",
			Instructions: []Instruction{},
		},
		Blocks: []*BasicBlock{},
	}
	builder.currentBlock = builder.currentFunc.Entry

	// Build literal expression
	literal := &ast.LiteralExpr{Value: "42"}
	value := builder.buildExpression(literal)

	if value == nil {
		t.Fatal("buildExpression should not return nil for literal")
	}

	// Check that a constant was created
	if len(builder.currentBlock.Instructions) == 0 {
		t.Error("Should have created constant instruction")
	}
}

func TestBuildIdentExpr(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// Initialize program and function for testing
	builder.program = &Program{}
	builder.currentFunc = &Function{
		Name:       "test",
		ReturnType: &IntType{Bits: 256},
		Entry: &BasicBlock{
			Label:        "entry",
			Instructions: []Instruction{},
		},
		Blocks: []*BasicBlock{},
	}
	builder.currentBlock = builder.currentFunc.Entry

	// Test boolean literals
	trueLit := &ast.IdentExpr{Name: "true"}
	value := builder.buildExpression(trueLit)

	if value == nil {
		t.Fatal("buildExpression should not return nil for true")
	}

	// Should use canonical constant
	if value.Name != "true" {
		t.Errorf("Should use canonical constant 'true', got %s", value.Name)
	}
}

// ============================================================================
// Builder Integration Tests
// ============================================================================

func TestBuildAssignmentStmt(t *testing.T) {
	source := `
contract AssignTest {
    #[storage]
    struct State {
        value: U256,
        flag: Bool,
    }

    #[create]
    fn create() writes State {
        State.value = 42;
        State.flag = true;
    }

    ext fn updateValues(newVal: U256) writes State {
        State.value = newVal;
        State.flag = false;
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	// Verify the program has expected functions
	if len(program.Functions) < 2 {
		t.Error("Program should have at least 2 functions (create and updateValues)")
	}

	// Check that storage stores are generated
	output := PrintProgram(program)
	if !strings.Contains(output, "SSTORE") {
		t.Error("Expected SSTORE instructions for State assignments")
	}
}

func TestBuildBinaryExpr(t *testing.T) {
	source := `
contract BinaryTest {
    ext fn testAdd(a: U256, b: U256) -> U256 {
        a + b
    }

    ext fn testComplex(x: U256, y: U256, z: U256) -> U256 {
        (x + y) * z
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	if !strings.Contains(output, "+ %") {
		t.Error("Expected addition operation")
	}
	if !strings.Contains(output, "* %") {
		t.Error("Expected multiplication operation")
	}
}

func TestBuildCallExpr(t *testing.T) {
	source := `
contract CallTest {
    use std::evm::{sender};

    ext fn testSenderCall() -> Address {
        sender()
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	if !strings.Contains(output, "sender") {
		t.Error("Expected sender call in output")
	}
}

func TestBuildEmitCall(t *testing.T) {
	source := `
contract EmitTest {
    use std::evm::{emit};

    #[event]
    struct Transfer {
        from: Address,
        to: Address,
        value: U256,
    }

    ext fn emitTransfer(from: Address, to: Address, value: U256) {
        emit(Transfer{from: from, to: to, value: value});
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	if !strings.Contains(output, "LOG3") && !strings.Contains(output, "ABI_ENC") && !strings.Contains(output, "EMIT") {
		t.Error("Expected LOG3/ABI_ENC/EMIT instructions for event emission")
	}
}

func TestBuildStorageAccess(t *testing.T) {
	source := `
contract StorageTest {
    #[storage]
    struct State {
        balance: U256,
        owner: Address,
    }

    ext fn getBalance() -> U256 reads State {
        State.balance
    }

    ext fn setBalance(amount: U256) writes State {
        State.balance = amount;
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	if !strings.Contains(output, "SLOAD") {
		t.Error("Expected SLOAD for balance read")
	}
	if !strings.Contains(output, "SSTORE") {
		t.Error("Expected SSTORE for balance write")
	}
}

func TestBuildCompoundAssignment(t *testing.T) {
	source := `
contract CompoundTest {
    #[storage]
    struct State {
        counter: U256,
    }

    ext fn increment() writes State {
        State.counter += 1;
    }

    ext fn multiplyBy(factor: U256) writes State {
        State.counter *= factor;
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	// Should have read-modify-write pattern
	if !strings.Contains(output, "SLOAD") {
		t.Error("Expected SLOAD for compound assignment")
	}
	if !strings.Contains(output, "ADD") && !strings.Contains(output, "MUL") {
		t.Error("Expected arithmetic operations")
	}
	if !strings.Contains(output, "SSTORE") {
		t.Error("Expected SSTORE for compound assignment")
	}
}

func TestBuildIfStatement(t *testing.T) {
	source := `
contract IfTest {
    ext fn testIf(condition: Bool) -> U256 {
        if condition {
            return 100;
        } else {
            return 200;
        }
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Skipf("If statements not yet supported - Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	// Should have branching structure
	if len(program.Functions) == 0 {
		t.Fatal("No functions in program")
	}

	fn := program.Functions[0]
	if len(fn.Blocks) < 3 { // entry, then, else
		t.Error("Expected at least 3 blocks for if-else statement")
	}
}

func TestBuildRequireStmt(t *testing.T) {
	source := `
contract RequireTest {
    ext fn testRequire(amount: U256) {
        require!(amount > 0);
        require!(amount < 1000000);
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Skipf("Require statements not yet supported - Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	if !strings.Contains(output, "require") || !strings.Contains(output, "REQUIRE") {
		// Require statements should appear in the output
		t.Logf("Output: %s", output)
	}
}

func TestBuildReturnStmt(t *testing.T) {
	source := `
contract ReturnTest {
    ext fn testReturn() -> U256 {
        return 42;
    }

    ext fn testEarlyReturn(condition: Bool) -> U256 {
        if condition {
            return 100;
        }
        return 200;
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Skipf("Return statements with if not yet supported - Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	// Check that all functions have proper return terminators
	for _, fn := range program.Functions {
		hasReturn := false
		for _, block := range fn.Blocks {
			if block.Terminator != nil {
				if _, ok := block.Terminator.(*ReturnTerminator); ok {
					hasReturn = true
					break
				}
			}
		}
		if !hasReturn && fn.ReturnType != nil {
			t.Errorf("Function %s should have return terminator", fn.Name)
		}
	}
}

func TestBuildStructLiteral(t *testing.T) {
	source := `
contract StructLiteralTest {
    struct Point {
        x: U256,
        y: U256,
    }

    ext fn createPoint(a: U256, b: U256) -> Point {
        Point{x: a, y: b}
    }
}`

	contract, parseErrors, scanErrors := parser.ParseSource("test.ka", source)
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		t.Fatalf("Parse errors: %v, Scan errors: %v", parseErrors, scanErrors)
	}

	analyzer := semantic.NewAnalyzer()
	errors := analyzer.Analyze(contract)
	if len(errors) > 0 {
		t.Fatalf("Semantic errors: %v", errors)
	}

	context := analyzer.GetContext()
	program := BuildProgram(contract, context)

	if program == nil {
		t.Fatal("Program should not be nil")
	}

	output := PrintProgram(program)
	// Struct literal should generate appropriate instructions
	if output == "" {
		t.Error("Program output should not be empty")
	}
}

// Helper function to check if a struct has an attribute with the given name
func hasAttribute(s *ast.Struct, attrName string) bool {
	if s.Attribute == nil {
		return false
	}
	return s.Attribute.Name == attrName
}

// ============================================================================
// Builder Helper Tests
// ============================================================================

func TestDescriptiveCompoundName(t *testing.T) {
	testCases := []struct {
		name     string
		expr     ast.Expr
		expected string
	}{
		{
			"Simple identifier",
			&ast.IdentExpr{Name: "balance"},
			"new_balance",
		},
		{
			"State field access",
			&ast.FieldAccessExpr{
				Target: &ast.IdentExpr{Name: "State"},
				Field:  "total_supply",
			},
			"new_total_supply",
		},
		{
			"Balances mapping",
			&ast.IndexExpr{
				Target: &ast.FieldAccessExpr{
					Target: &ast.IdentExpr{Name: "State"},
					Field:  "balances",
				},
				Index: &ast.IdentExpr{Name: "from"},
			},
			"new_from_balance",
		},
		{
			"Allowances mapping",
			&ast.IndexExpr{
				Target: &ast.FieldAccessExpr{
					Target: &ast.IdentExpr{Name: "State"},
					Field:  "allowances",
				},
				Index: &ast.IdentExpr{Name: "owner"},
			},
			"new_allowance",
		},
	}

	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := builder.getDescriptiveCompoundName(tc.expr, "test_op")
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestGetConstEvalIntrinsics(t *testing.T) {
	intrinsics := getConstEvalIntrinsics()

	// Check that std::address::zero is included
	if zeroIntrinsic, exists := intrinsics["std::address::zero"]; !exists {
		t.Error("std::address::zero should be in intrinsics")
	} else {
		if zeroIntrinsic.ConstValue != "0x0000000000000000000000000000000000000000" {
			t.Error("std::address::zero should have correct zero address value")
		}
	}
}

func TestGetCompoundOpString(t *testing.T) {
	testCases := []struct {
		op       ast.AssignType
		expected string
	}{
		{ast.PLUS_ASSIGN, "ADD"},
		{ast.MINUS_ASSIGN, "SUB"},
		{ast.STAR_ASSIGN, "MUL"},
		{ast.SLASH_ASSIGN, "DIV"},
		{ast.PERCENT_ASSIGN, "MOD"},
		{ast.ASSIGN, "UNKNOWN_OP"},
	}

	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	for _, tc := range testCases {
		result := builder.getCompoundOpString(tc.op)
		if result != tc.expected {
			t.Errorf("getCompoundOpString(%v) = %s, expected %s", tc.op, result, tc.expected)
		}
	}
}

func TestBinaryOpFromToken(t *testing.T) {
	// This test requires access to specific token constants
	// which may not be directly testable without parser context
	t.Skip("binaryOpFromToken test requires access to specific token constants")
}

func TestHasAttribute(t *testing.T) {
	// Test struct with storage attribute
	storageStruct := &ast.Struct{
		Attribute: &ast.Attribute{
			Name: "storage",
		},
		Name: ast.Ident{Value: "State"},
	}

	if !hasAttribute(storageStruct, "storage") {
		t.Error("Should detect storage attribute")
	}

	if hasAttribute(storageStruct, "event") {
		t.Error("Should not detect event attribute")
	}

	// Test struct with no attribute
	plainStruct := &ast.Struct{
		Name: ast.Ident{Value: "Plain"},
	}

	if hasAttribute(plainStruct, "storage") {
		t.Error("Should not detect attribute on plain struct")
	}
}

func TestBuilderCreateBlock(t *testing.T) {
	context := semantic.NewContextRegistry()
	builder := NewBuilder(context)

	// Initialize program and function
	builder.program = &Program{
		Blocks: make(map[string]*BasicBlock),
	}
	builder.currentFunc = &Function{
		Name:   "test",
		Blocks: []*BasicBlock{},
	}

	block := builder.createBlock("test_block")
	if block == nil {
		t.Fatal("createBlock should not return nil")
	}

	if block.Label != "test_block_0" {
		t.Errorf("Block label should be 'test_block_0', got %s", block.Label)
	}

	if len(builder.currentFunc.Blocks) != 1 {
		t.Error("Block should be added to current function")
	}
}

// TestTypeValidation removed - AddType function doesn't exist
