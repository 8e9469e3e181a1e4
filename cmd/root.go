package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/coregx/regexlab/api"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/match"
)

const defaultTimeout = 30 * time.Second

// ErrDiagnostics is returned when a request produced diagnostics. They have
// already been printed.
var ErrDiagnostics = errors.New("request failed")

// app holds the flags and the state shared by the subcommands.
type app struct {
	cfgFile   string
	verbose   bool
	timeout   time.Duration
	colorMode string
	options   []string
	jsonOut   bool

	config  FileConfig
	logger  *zap.Logger
	handler *api.Handler
}

// NewRootCommand builds the regexlab command tree.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:               "regexlab",
		Short:             "regexlab - annotate, match and step through regular expressions",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", defaultConfigFile, "Path to the configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.DurationVar(&a.timeout, "timeout", defaultTimeout, "Abort a request running longer than this")
	pf.StringVar(&a.colorMode, "color", "", "Color output: auto, always or never")
	pf.StringSliceVarP(&a.options, "options", "o", nil, "Comma-separated match options, e.g. i,m,g,unicodeScalarSemantics")
	pf.BoolVar(&a.jsonOut, "json", false, "Print the JSON response instead of text")

	root.AddCommand(
		a.annotateCmd(),
		a.matchCmd(),
		a.debugCmd(),
		a.execCmd(),
		a.initCmd(),
	)
	return root
}

// Execute runs the command line.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// init creates the file, so only the other commands require it.
	explicit := cmd.Flags().Changed("config") && cmd.Name() != "init"
	cfg, err := loadConfig(a.cfgFile, explicit)
	if err != nil {
		return err
	}
	a.config = cfg

	if a.verbose {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	if !cmd.Flags().Changed("options") {
		a.options = splitOptions(cfg.MatchOptions)
	}
	if err := a.setColor(cmd.OutOrStdout()); err != nil {
		return err
	}

	dcfg := debugger.DefaultConfig()
	if cfg.MaxSteps > 0 {
		dcfg.MaxSteps = cfg.MaxSteps
	}
	mcfg := match.DefaultConfig()
	if cfg.MaxMatches > 0 {
		mcfg.MaxMatches = cfg.MaxMatches
	}
	a.handler, err = api.NewHandler(
		api.WithDebuggerConfig(dcfg),
		api.WithMatchConfig(mcfg),
		api.WithLogger(a.logger),
	)
	return err
}

func (a *app) setColor(out io.Writer) error {
	mode := a.colorMode
	if mode == "" {
		mode = a.config.Color
	}
	switch mode {
	case "", "auto":
		color.NoColor = !isTerminal(out)
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid color mode %q: want auto, always or never", mode)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// serve runs req and prints either the JSON response or, through render,
// its result. Diagnostics are printed and reported as ErrDiagnostics.
func (a *app) serve(cmd *cobra.Command, req api.Request, render func(io.Writer, json.RawMessage) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	resp := a.handler.Handle(ctx, req)
	out := cmd.OutOrStdout()
	if a.jsonOut {
		if err := writeJSON(out, resp); err != nil {
			return err
		}
	} else if resp.Failed() {
		printDiagnostics(out, req.Pattern, resp.Error)
	} else if err := render(out, resp.Result); err != nil {
		return err
	}
	if resp.Failed() {
		return ErrDiagnostics
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
