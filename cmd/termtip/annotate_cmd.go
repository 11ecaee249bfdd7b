package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/render"
	"github.com/spf13/cobra"
)

// annotateOutput is the JSON document printed by "annotate --format json".
type annotateOutput struct {
	Title           string             `json:"title,omitempty"`
	GlossaryVersion string             `json:"glossaryVersion"`
	Segments        []annotate.Segment `json:"segments"`
}

func newAnnotateCmd(app *App) *cobra.Command {
	var (
		format    string
		input     string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "annotate [FILE]",
		Short: "Split text into plain and glossary-term segments",
		Long: "Reads FILE (or stdin) and prints its segments. HTML input is reduced\n" +
			"to its readable article text (NFC, LF line endings) before matching.\n" +
			"Plain text is matched as-is, so the segments join back to the input bytes.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validInput(input); err != nil {
				return err
			}
			g, m, err := app.loadMatcher()
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

			segs := m.Annotate(text)
			app.Logger.Printf("%s: %d segments, %d distinct terms", name, len(segs), len(annotate.Terms(segs)))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if segs == nil {
					segs = []annotate.Segment{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(annotateOutput{Title: title, GlossaryVersion: g.Version(), Segments: segs})
			case "text":
				return writeSegmentLines(out, segs)
			case "html":
				if err := render.HTML(out, segs, render.HTMLOptions{Threshold: threshold}); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out)
				return err
			case "terminal":
				_, err := fmt.Fprintln(out, render.Terminal(segs, app.terminalStyles()))
				return err
			}
			return fmt.Errorf("invalid --format %q (want json, text, html or terminal)", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, text, html or terminal")
	cmd.Flags().StringVar(&input, "input", "auto", "input kind: text, html or auto (by file extension)")
	cmd.Flags().Float64Var(&threshold, "threshold", app.Config.Threshold, "placement threshold exposed to HTML tooltips (px)")
	return cmd
}

// writeSegmentLines prints one segment per line with quoted values.
func writeSegmentLines(w io.Writer, segs []annotate.Segment) error {
	for _, s := range segs {
		var err error
		if s.IsTerm() {
			_, err = fmt.Fprintf(w, "term\t%q\t%q\n", s.MatchedText, s.Term)
		} else {
			_, err = fmt.Fprintf(w, "text\t%q\n", s.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func newRenderCmd(app *App) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "render [MARKDOWN-FILE]",
		Short: "Render a Markdown article to HTML with term tooltips",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, m, err := app.loadMatcher()
			if err != nil {
				return err
			}
			data, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return render.Markdown(cmd.OutOrStdout(), data, m, render.HTMLOptions{Threshold: threshold})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", app.Config.Threshold, "placement threshold exposed to HTML tooltips (px)")
	return cmd
}
