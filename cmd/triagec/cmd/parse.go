package cmd

import (
	"fmt"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/parser"
	"github.com/spf13/cobra"
)

var parseEvalExpr string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a rule script and print the resulting rule tree",
	Long: `Parse a rule script and pretty-print the resulting Script AST, one rule
per paragraph, in the same surface syntax the script was written in.

Examples:
  triagec parse rules.triage
  triagec parse -e "IF 'hr' > 100 THEN SET 'risk' = \"high\""`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline text instead of reading from a file")
}

func runParse(cmd *cobra.Command, args []string) error {
	input, _, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	script, err := parser.Parse(input)
	if err != nil {
		if d, ok := err.(*diag.Diagnostic); ok {
			return fmt.Errorf("%s", d.Format(input))
		}
		return err
	}

	fmt.Println(script.String())
	if cfg.Verbose {
		fmt.Printf("---\nrules: %d\n", len(script.Rules))
	}
	return nil
}
