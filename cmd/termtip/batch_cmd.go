package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/batch"
	"github.com/spf13/cobra"
)

// batchOutput is written to <out-dir>/<name>.segments.json per document.
type batchOutput struct {
	Source          string             `json:"source"`
	Title           string             `json:"title,omitempty"`
	GlossaryVersion string             `json:"glossaryVersion"`
	Segments        []annotate.Segment `json:"segments"`
}

func newBatchCmd(app *App) *cobra.Command {
	var (
		outDir string
		input  string
	)

	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Annotate many files concurrently",
		Long: "Annotates each FILE and writes <out-dir>/<name>.segments.json. A file\n" +
			"that cannot be read or extracted is reported and skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validInput(input); err != nil {
				return err
			}
			g, m, err := app.loadMatcher()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			var readErrs int
			docs := make([]batch.Document, 0, len(args))
			for _, path := range args {
				body, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
					readErrs++
					continue
				}
				docs = append(docs, batch.Document{Name: path, Body: body, HTML: isHTML(path, input)})
			}

			version := g.Version()
			an := batch.NewAnnotator(m)
			an.Workers = app.Config.Workers
			an.Logger = app.Logger
			an.Memo = batch.NewMemo(len(docs))
			an.GlossaryVersion = version
			an.OnProgress = func(current, total int) {
				app.Logger.Printf("annotated %d/%d", current, total)
			}

			results, err := an.Run(cmd.Context(), docs)
			if err != nil {
				return err
			}

			failed := readErrs
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip %v\n", r.Err)
					failed++
					continue
				}
				segs := r.Segments
				if segs == nil {
					segs = []annotate.Segment{}
				}
				data, err := json.MarshalIndent(batchOutput{
					Source:          r.Name,
					Title:           r.Title,
					GlossaryVersion: version,
					Segments:        segs,
				}, "", "  ")
				if err != nil {
					return err
				}
				dest := filepath.Join(outDir, outputName(r.Name))
				if err := os.WriteFile(dest, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", dest, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d of %d files into %s\n", len(args)-failed, len(args), outDir)
			if failed > 0 {
				return fmt.Errorf("%d files failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for .segments.json files")
	cmd.Flags().StringVar(&input, "input", "auto", "input kind: text, html or auto (by file extension)")
	cmd.Flags().IntVarP(&app.Config.Workers, "workers", "w", app.Config.Workers, "number of concurrent workers (env TERMTIP_WORKERS)")
	return cmd
}

// outputName maps "dir/guide.html" to "guide.segments.json".
func outputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".segments.json"
}
