package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coregx/regexlab/annotate"
	"github.com/coregx/regexlab/api"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/match"
)

func (a *app) annotateCmd() *cobra.Command {
	var list bool
	c := &cobra.Command{
		Use:   "annotate PATTERN",
		Short: "Color a pattern by construct and list its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.Request{
				Method:       api.MethodParseExpression,
				Pattern:      args[0],
				MatchOptions: a.options,
			}
			return a.serve(cmd, req, func(w io.Writer, result json.RawMessage) error {
				var tokens []annotate.Token
				if err := json.Unmarshal(result, &tokens); err != nil {
					return err
				}
				printTokens(w, args[0], tokens, list)
				return nil
			})
		},
	}
	c.Flags().BoolVarP(&list, "list", "l", false, "List every token with its classes and tooltip")
	return c
}

func (a *app) matchCmd() *cobra.Command {
	var global bool
	c := &cobra.Command{
		Use:   "match PATTERN TEXT",
		Short: "Print the matches of a pattern and their capture groups",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := a.options
			if global {
				options = append(append([]string{}, options...), "g")
			}
			req := api.Request{
				Method:       api.MethodMatch,
				Pattern:      args[0],
				Text:         args[1],
				MatchOptions: options,
			}
			return a.serve(cmd, req, func(w io.Writer, result json.RawMessage) error {
				var matches []match.Match
				if err := json.Unmarshal(result, &matches); err != nil {
					return err
				}
				printMatches(w, args[1], matches)
				return nil
			})
		},
	}
	c.Flags().BoolVarP(&global, "global", "g", false, "Return every match, same as the g option")
	return c
}

func (a *app) debugCmd() *cobra.Command {
	var step int
	c := &cobra.Command{
		Use:   "debug PATTERN TEXT",
		Short: "Show the engine state after a given step",
		Long: `Runs the backtracking engine on TEXT and shows the program, the position and
the counters right after --step cycles. Without --step the final state is shown.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.Request{
				Method:       api.MethodDebug,
				Pattern:      args[0],
				Text:         args[1],
				MatchOptions: a.options,
			}
			if cmd.Flags().Changed("step") {
				req.Step = &step
			}
			return a.serve(cmd, req, func(w io.Writer, result json.RawMessage) error {
				var m debugger.Metrics
				if err := json.Unmarshal(result, &m); err != nil {
					return err
				}
				printMetrics(w, args[1], m)
				return nil
			})
		},
	}
	c.Flags().IntVarP(&step, "step", "s", 0, "Step to inspect, clamped to the run")
	return c
}

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [FILE]",
		Short: "Serve one JSON request from FILE or standard input",
		Long: `Reads a request such as
  {"method": "debug", "pattern": "a(b|c)", "text": "ac", "matchOptions": [], "step": 3}
and prints the JSON response. The method is parseExpression, match or debug.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			req, err := api.DecodeRequest(in)
			if err != nil {
				return err
			}
			a.logger.Debug("exec request", zap.String("method", string(req.Method)))
			a.jsonOut = true
			return a.serve(cmd, req, nil)
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := writeConfig(a.cfgFile); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", a.cfgFile)
			return nil
		},
	}
}

// splitOptions accepts options written either as one comma-separated
// string or as separate values.
func splitOptions(values []string) []string {
	var out []string
	for _, v := range values {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
