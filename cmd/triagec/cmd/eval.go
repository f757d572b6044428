package cmd

import (
	"fmt"
	"os"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/eval"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/loader"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/parser"
	"github.com/spf13/cobra"
)

var (
	evalCSVPath string
	evalOutPath string
)

var evalCmd = &cobra.Command{
	Use:   "eval <script-file>",
	Short: "Run a rule script against a CSV table and print the classified rows",
	Long: `Run a rule script against a CSV table, applying every rule to every row
in order, and print the resulting table (including any columns the script
added via SET) back out as CSV.

Example:
  triagec eval rules.triage --csv patients.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalCSVPath, "csv", "", "path to the input CSV table (required)")
	evalCmd.Flags().StringVar(&evalOutPath, "out", "", "path to write the resulting CSV (default: stdout)")
	evalCmd.MarkFlagRequired("csv")
}

func runEval(cmd *cobra.Command, args []string) error {
	scriptSrc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", args[0], err)
	}

	script, err := parser.Parse(string(scriptSrc))
	if err != nil {
		if d, ok := err.(*diag.Diagnostic); ok {
			return fmt.Errorf("%s", d.Format(string(scriptSrc)))
		}
		return err
	}

	csvFile, err := os.Open(evalCSVPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV %s: %w", evalCSVPath, err)
	}
	defer csvFile.Close()

	table, err := loader.LoadCSV(csvFile, cfg.Canonicalize)
	if err != nil {
		return fmt.Errorf("failed to load CSV %s: %w", evalCSVPath, err)
	}

	table, err = eval.Evaluate(script, table, eval.WithLogger(logger))
	if err != nil {
		return err
	}

	out := os.Stdout
	if evalOutPath != "" {
		f, err := os.Create(evalOutPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", evalOutPath, err)
		}
		defer f.Close()
		out = f
	}
	return loader.WriteCSV(out, table)
}
