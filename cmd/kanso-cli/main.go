// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"github.com/fatih/color"
	"kanso-opt/internal/ir"
	"kanso-opt/internal/parser"
	"kanso-opt/internal/semantic"
	"os"
	"strings"
)

func main() {
	optLevel := flag.Int("O", 0, "optimization level (4 enables the GVN pipeline)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: kanso [-O level] <file.ka>")
		os.Exit(1)
	}

	path := args[0]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Errorf("failed to read file: %w", err)
		os.Exit(1)
	}

	contract, parseErrors, scanErrors := parser.ParseSource(path, string(source))
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		reportParseErrors(string(source), parseErrors, scanErrors)
		os.Exit(1)
	}

	analyzer := semantic.NewAnalyzer()
	if semErrors := analyzer.Analyze(contract); len(semErrors) > 0 {
		for _, semErr := range semErrors {
			color.Red("❌ %s", semErr.Message)
		}
		os.Exit(1)
	}

	ir.SetOptimizationLevel(*optLevel)
	program := ir.BuildProgram(contract, analyzer.GetContext())

	fmt.Println(ir.PrintProgram(program))

	color.Green("✅ Successfully processed %s", path)
}

// reportParseErrors prints a friendly caret-style message for every
// scanner/parser error collected while parsing src.
func reportParseErrors(src string, parseErrors []parser.ParseError, scanErrors []parser.ScanError) {
	lines := strings.Split(src, "\n")

	report := func(message string, pos parser.Position) {
		if pos.Line <= 0 || pos.Line > len(lines) {
			color.Red("❌ %s (unknown location)", message)
			return
		}
		line := lines[pos.Line-1]
		caret := strings.Repeat(" ", pos.Column-1) + "^"
		color.Red("❌ %s at line %d, column %d:", message, pos.Line, pos.Column)
		fmt.Println(line)
		color.HiRed(caret)
	}

	for _, se := range scanErrors {
		report(se.Message, se.Position)
	}
	for _, pe := range parseErrors {
		report(pe.Message, pe.Position)
	}
}
