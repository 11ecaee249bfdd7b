package main

import (
	"errors"
	"fmt"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/article"
	"github.com/spf13/cobra"
)

var errNotTerminal = errors.New("view needs an interactive terminal")

func newViewCmd(app *App) *cobra.Command {
	var (
		input     string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Read an article interactively with term tooltips",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.IsTerminal() {
				return errNotTerminal
			}
			if err := validInput(input); err != nil {
				return err
			}
			_, m, err := app.loadMatcher()
			if err != nil {
				return err
			}
			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			title, text, err := documentText(data, name, input)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if title == "" {
				title = name
			}

			var paragraphs [][]annotate.Segment
			for _, p := range article.Paragraphs(article.Normalize(text)) {
				paragraphs = append(paragraphs, m.Annotate(p))
			}
			return app.RunViewer(title, paragraphs, threshold, app.terminalStyles())
		},
	}

	cmd.Flags().StringVar(&input, "input", "auto", "input kind: text, html or auto (by file extension)")
	cmd.Flags().Float64Var(&threshold, "threshold", app.Config.TerminalThreshold, "rows needed above a term for its panel (env TERMTIP_TERMINAL_THRESHOLD)")
	return cmd
}
