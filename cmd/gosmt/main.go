// Command gosmt formats and inspects SMT-LIB 2 scripts and analyzes Z3
// trace logs for expensive quantifier instantiations.
//
//	gosmt fmt problem.smt2
//	gosmt count problem.smt2
//	gosmt trace --top 20 z3.log
//	gosmt trace --follow z3.log
//	gosmt reports list --store ./reports
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
