// Package main provides the entry point for riscv-fuzz-test.
// riscv-fuzz-test differentially tests RISC-V instruction-set simulators by
// running the same program under Spike and a Rocket emulator and comparing
// their architectural state dumps.
//
// For the full CLI, use: go run ./cmd/riscv-fuzz-test
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("riscv-fuzz-test - RISC-V Simulator Differential Tester")
	fmt.Println("")
	fmt.Println("Usage: riscv-fuzz-test <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  random     Generate and test random programs")
	fmt.Println("  run        Differentially test one assembly file")
	fmt.Println("  emulate    Run one program under a single simulator")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/riscv-fuzz-test' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/riscv-fuzz-test' instead.")
	}
}
