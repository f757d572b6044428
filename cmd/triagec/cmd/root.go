package cmd

import (
	"fmt"
	"os"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var (
	cfgPath string
	verbose bool
	cfg     config.Config
	logger  = logrus.StandardLogger()
)

var rootCmd = &cobra.Command{
	Use:   "triagec",
	Short: "Patient triage rule-language lexer, parser and evaluator",
	Long: `triagec is a command-line interpreter for the patient triage rule
language: IF/THEN/ELSE rules over a table of vital-sign rows, with a
COUNT WHERE aggregate.

It exposes each pipeline stage as its own subcommand so the language can be
debugged one step at a time:

  triagec lex    - tokenize a script and print the token stream
  triagec parse  - parse a script and print the resulting rule tree
  triagec eval   - run a script against a CSV table and print the result`,
	Version:           Version,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
`, GitCommit))

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a triagec.yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if cfgPath != "" {
		overlay, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg.Apply(overlay)
	}
	if verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
