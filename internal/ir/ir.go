package ir

// This file provides the main entry point for the IR system
// The IR is implemented using Static Single Assignment (SSA) form for optimal EVM optimization

import (
	"kanso-opt/internal/ast"
	"kanso-opt/internal/semantic"
)

// optimizationLevel gates whether BuildProgram runs the optimization
// pipeline. Callers set it via SetOptimizationLevel before building; it
// defaults to 0 (disabled) so tests that assert on pre-optimization IR
// shapes keep working unchanged.
var optimizationLevel int

// SetOptimizationLevel configures the optimization level applied by every
// subsequent BuildProgram call. Level 0 disables the pipeline; level 4 and
// above (kanso-cli's "-O4") runs it.
func SetOptimizationLevel(level int) {
	optimizationLevel = level
}

// BuildProgram is the main entry point for converting AST to IR
func BuildProgram(contract *ast.Contract, context *semantic.ContextRegistry) *Program {
	builder := NewBuilder(context)
	program := builder.Build(contract)

	if optimizationLevel >= 4 {
		pipeline := NewOptimizationPipeline()
		pipeline.Run(program)
	}

	return program
}

// PrintProgram returns a pretty-printed representation of the IR
func PrintProgram(program *Program) string {
	return Print(program)
}
