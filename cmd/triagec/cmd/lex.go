package cmd

import (
	"fmt"
	"os"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/lexer"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/token"
	"github.com/spf13/cobra"
)

var (
	lexEvalExpr string
	showPos     bool
	onlyErrors  bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a rule script and print the resulting tokens",
	Long: `Tokenize a rule script and print the resulting tokens, one per line.

Examples:
  triagec lex rules.triage
  triagec lex -e "IF 'hr' > 100 THEN SET 'risk' = \"high\""
  triagec lex --show-pos --only-errors rules.triage`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline text instead of reading from a file")
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "show only ILLEGAL tokens")
}

func runLex(cmd *cobra.Command, args []string) error {
	input, _, err := readSource(lexEvalExpr, args)
	if err != nil {
		return err
	}

	l := lexer.New(input)
	tokenCount := 0
	errorCount := 0

	for {
		tok := l.NextToken()
		if onlyErrors && tok.Type != token.ILLEGAL {
			if tok.Type == token.EOF {
				break
			}
			continue
		}
		tokenCount++
		if tok.Type == token.ILLEGAL {
			errorCount++
		}
		printToken(tok)
		if tok.Type == token.EOF {
			break
		}
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "---\ntokens: %d, errors: %d\n", tokenCount, errorCount)
	}

	for _, e := range l.Errors() {
		fmt.Fprintln(os.Stderr, e.Format(input))
	}
	if len(l.Errors()) > 0 {
		return fmt.Errorf("found %d lex error(s)", len(l.Errors()))
	}
	return nil
}

func printToken(tok token.Token) {
	out := tok.String()
	if showPos {
		out += fmt.Sprintf(" @%s", tok.Pos)
	}
	fmt.Println(out)
}

// readSource resolves the input text for a subcommand: an inline -e
// expression takes priority over a file argument.
func readSource(inline string, args []string) (input, filename string, err error) {
	if inline != "" {
		return inline, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e for inline text")
}
