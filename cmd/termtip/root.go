package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/japaniel/termtip/pkg/article"
	"github.com/japaniel/termtip/pkg/config"
	"github.com/japaniel/termtip/pkg/glossary"
	"github.com/japaniel/termtip/pkg/render"
	"github.com/japaniel/termtip/pkg/viewer"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// App holds settings and terminal hooks shared by all commands.
type App struct {
	Config config.Config
	// Logger is configured from --verbose before any command runs.
	Logger *log.Logger
	// IsTerminal reports whether stdout is an interactive terminal.
	IsTerminal func() bool
	// RunViewer starts the interactive viewer; tests replace it.
	RunViewer func(title string, paragraphs [][]annotate.Segment, threshold float64, styles render.TerminalStyles) error

	color string
}

// NewRootCmd creates the top-level "termtip" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.RunViewer == nil {
		app.RunViewer = viewer.Run
	}
	if app.IsTerminal == nil {
		app.IsTerminal = func() bool { return false }
	}
	if app.Config.Color == "" {
		app.Config.Color = config.ColorAuto
	}

	root := &cobra.Command{
		Use:   "termtip",
		Short: "Annotate glossary terms in articles and place their tooltips",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := config.ParseColorMode(app.color)
			if err != nil {
				return err
			}
			app.Config.Color = mode

			out := io.Discard
			if app.Config.Verbose {
				out = cmd.ErrOrStderr()
			}
			app.Logger = log.New(out, "[termtip] ", log.LstdFlags)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.Config.GlossaryPath, "glossary", "g", app.Config.GlossaryPath, "glossary JSON file (env TERMTIP_GLOSSARY)")
	flags.BoolVarP(&app.Config.Verbose, "verbose", "v", app.Config.Verbose, "log progress to stderr")
	flags.StringVar(&app.color, "color", string(app.Config.Color), "style terminal output: auto, always or never")

	root.AddCommand(
		newAnnotateCmd(app),
		newRenderCmd(app),
		newPlaceCmd(app),
		newSuggestCmd(app),
		newBatchCmd(app),
		newViewCmd(app),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "termtip %s\n", Version)
			return nil
		},
	}
}

var errNoGlossary = errors.New("no glossary: pass --glossary or set TERMTIP_GLOSSARY")

// loadMatcher loads the configured glossary and validates it.
func (app *App) loadMatcher() (glossary.Glossary, *annotate.Matcher, error) {
	if app.Config.GlossaryPath == "" {
		return nil, nil, errNoGlossary
	}
	g, err := glossary.Load(app.Config.GlossaryPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := annotate.NewMatcher(g)
	if err != nil {
		return nil, nil, fmt.Errorf("glossary %s: %w", app.Config.GlossaryPath, err)
	}
	app.Logger.Printf("loaded %d terms from %s (version %.12s)", m.Len(), app.Config.GlossaryPath, g.Version())
	return g, m, nil
}

// readInput reads the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return data, args[0], nil
}

// documentText turns raw input into annotatable text. kind is "text",
// "html", or "auto" to decide by file extension. Plain text is returned
// byte-for-byte so that its segments join back to the input.
func documentText(data []byte, name, kind string) (title, text string, err error) {
	if isHTML(name, kind) {
		art, err := article.FromHTML(bytes.NewReader(data), nil)
		if err != nil {
			return "", "", err
		}
		return art.Title, art.Text, nil
	}
	return "", string(data), nil
}

func isHTML(name, kind string) bool {
	switch kind {
	case "html":
		return true
	case "auto":
		lower := strings.ToLower(name)
		return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
	}
	return false
}

func validInput(kind string) error {
	switch kind {
	case "text", "html", "auto":
		return nil
	}
	return fmt.Errorf("invalid --input %q (want text, html or auto)", kind)
}

// terminalStyles picks colored or plain styles from the color mode.
func (app *App) terminalStyles() render.TerminalStyles {
	switch app.Config.Color {
	case config.ColorAlways:
		return render.DefaultTerminalStyles()
	case config.ColorNever:
		return render.PlainStyles()
	}
	if app.IsTerminal() {
		return render.DefaultTerminalStyles()
	}
	return render.PlainStyles()
}
