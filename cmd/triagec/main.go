// Command triagec is the command-line interpreter for the patient triage
// rule language: lex, parse and eval subcommands over the pipeline in
// internal/lexer, internal/parser and internal/eval.
package main

import (
	"fmt"
	"os"

	"github.com/gelaysabelle/medical-triage-interpreter/cmd/triagec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
