package main

import (
	"encoding/json"
	"fmt"

	"github.com/japaniel/termtip/pkg/glossary"
	"github.com/japaniel/termtip/pkg/suggest"
	"github.com/spf13/cobra"
)

func newSuggestCmd(app *App) *cobra.Command {
	var (
		limit  int
		input  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "suggest [FILE]",
		Short: "Suggest Japanese nouns worth adding to the glossary",
		Long: "Tokenizes FILE (or stdin) and lists the most frequent nouns that no\n" +
			"glossary term covers yet. The glossary is optional.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validInput(input); err != nil {
				return err
			}

			var g glossary.Glossary
			if app.Config.GlossaryPath != "" {
				loaded, _, err := app.loadMatcher()
				if err != nil {
					return err
				}
				g = loaded
			}

			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, text, err := documentText(data, name, input)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			s, err := suggest.NewSuggester()
			if err != nil {
				return fmt.Errorf("create tokenizer: %w", err)
			}
			candidates := s.Suggest(text, g, limit)

			out := cmd.OutOrStdout()
			if asJSON {
				if candidates == nil {
					candidates = []suggest.Candidate{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No candidates found.")
				return nil
			}
			for _, c := range candidates {
				fmt.Fprintf(out, "%4d  %s\t%s\n", c.Count, c.Term, c.Reading)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of candidates")
	cmd.Flags().StringVar(&input, "input", "auto", "input kind: text, html or auto (by file extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print candidates as JSON")
	return cmd
}
