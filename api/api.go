// Package api dispatches introspection requests by method name and shapes
// their results and failures into one response envelope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/coregx/regexlab/annotate"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/engine"
	"github.com/coregx/regexlab/match"
	"github.com/coregx/regexlab/span"
	"github.com/coregx/regexlab/syntax"
)

// ErrUnknownMethod is returned for a request whose method is not served.
var ErrUnknownMethod = errors.New("unknown method")

// Method names a request kind.
type Method string

const (
	// MethodParseExpression annotates the pattern.
	MethodParseExpression Method = "parseExpression"
	// MethodMatch returns the matches of the pattern in the text.
	MethodMatch Method = "match"
	// MethodDebug returns the engine state at a step.
	MethodDebug Method = "debug"
)

// Request is one introspection request.
type Request struct {
	Method       Method   `json:"method"`
	Pattern      string   `json:"pattern"`
	Text         string   `json:"text,omitempty"`
	MatchOptions []string `json:"matchOptions,omitempty"`
	Step         *int     `json:"step,omitempty"`
}

// Response carries either a result or the diagnostics explaining why there
// is none. Result is null when Error is not empty.
type Response struct {
	Method Method                `json:"method"`
	Result json.RawMessage       `json:"result"`
	Error  []annotate.Diagnostic `json:"error"`
}

// Failed reports whether the response carries diagnostics.
func (r Response) Failed() bool {
	return len(r.Error) > 0
}

// DecodeRequest reads one JSON request.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("api: decode request: %w", err)
	}
	return req, nil
}

// Handler serves requests. It is safe for concurrent use.
type Handler struct {
	session     *debugger.Session
	matchConfig match.Config
	logger      *zap.Logger
}

// Option configures a Handler.
type Option func(*handlerOptions)

type handlerOptions struct {
	debugger debugger.Config
	match    match.Config
	logger   *zap.Logger
}

// WithDebuggerConfig sets the debug session limits.
func WithDebuggerConfig(c debugger.Config) Option {
	return func(o *handlerOptions) { o.debugger = c }
}

// WithMatchConfig sets the matcher limits.
func WithMatchConfig(c match.Config) Option {
	return func(o *handlerOptions) { o.match = c }
}

// WithLogger sets the logger, which is also handed to the debugger and the
// matcher. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *handlerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewHandler validates the configuration and returns a handler.
func NewHandler(opts ...Option) (*Handler, error) {
	o := handlerOptions{
		debugger: debugger.DefaultConfig(),
		match:    match.DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.match.Validate(); err != nil {
		return nil, err
	}
	session, err := debugger.NewSession(o.debugger, debugger.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return &Handler{session: session, matchConfig: o.match, logger: o.logger}, nil
}

// Handle serves one request. Failures never escape as errors: they become
// diagnostics of the response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	begin := time.Now()
	resp := Response{Method: req.Method, Error: []annotate.Diagnostic{}}

	var result any
	var err error
	switch req.Method {
	case MethodParseExpression:
		res := annotate.Pattern(req.Pattern, annotate.OptionsFromFlags(req.MatchOptions))
		result = nonNil(res.Tokens)
		resp.Error = append(resp.Error, res.Diagnostics...)
	case MethodMatch:
		result, err = h.match(ctx, req)
	case MethodDebug:
		result, err = h.session.ComputeMetrics(ctx, debugger.Request{
			Pattern: req.Pattern,
			Text:    req.Text,
			Options: req.MatchOptions,
			Step:    req.Step,
		})
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}

	if err != nil {
		resp.Error = append(resp.Error, Diagnose(req.Pattern, err))
	}
	if len(resp.Error) == 0 {
		data, merr := json.Marshal(result)
		if merr != nil {
			resp.Error = append(resp.Error, Diagnose(req.Pattern, merr))
		} else {
			resp.Result = data
		}
	}

	fields := []zap.Field{
		zap.String("method", string(req.Method)),
		zap.Int("patternLength", len(req.Pattern)),
		zap.Duration("elapsed", time.Since(begin)),
		zap.Int("diagnostics", len(resp.Error)),
	}
	if len(resp.Error) > 0 && resp.Error[0].Behavior == annotate.BehaviorFatal {
		h.logger.Error("request failed", append(fields, zap.String("message", resp.Error[0].Message))...)
	} else {
		h.logger.Debug("request served", fields...)
	}
	return resp
}

func (h *Handler) match(ctx context.Context, req Request) ([]match.Match, error) {
	m, err := match.Compile(req.Pattern, req.MatchOptions, h.matchConfig, match.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, req.Text)
}

func nonNil(tokens []annotate.Token) []annotate.Token {
	if tokens == nil {
		return []annotate.Token{}
	}
	return tokens
}

// Diagnose converts an error of any request into a diagnostic. Problems with
// the pattern, its options or its run are errors located in the pattern
// where possible; bugs and cancellations are fatal.
func Diagnose(pattern string, err error) annotate.Diagnostic {
	var (
		replay  *debugger.ReplayInconsistencyError
		parse   *debugger.ParseError
		compile *debugger.CompileError
		syn     *syntax.Error
		eng     *engine.CompileError
	)
	switch {
	case errors.As(err, &replay):
		return annotate.Diagnostic{
			Behavior: annotate.BehaviorFatal,
			Message:  "internal error: the debugger could not reproduce the run (" + replay.Reason + ")",
		}
	case errors.As(err, &parse):
		return located(parse.Message, parse.Location)
	case errors.As(err, &compile):
		return located(compile.Message, compile.Location)
	case errors.As(err, &syn):
		return annotate.ParseDiagnostic(pattern, err)
	case errors.As(err, &eng):
		ix := span.NewIndex(pattern)
		return located(eng.Message, ix.Span(eng.Location.Start, eng.Location.End))
	case errors.Is(err, engine.ErrInvalidOption),
		errors.Is(err, match.ErrCycleLimit),
		errors.Is(err, debugger.ErrStepLimit):
		return annotate.Diagnostic{Behavior: annotate.BehaviorError, Message: err.Error()}
	case errors.Is(err, ErrUnknownMethod):
		return annotate.Diagnostic{Behavior: annotate.BehaviorError, Message: err.Error()}
	}
	return annotate.Diagnostic{Behavior: annotate.BehaviorFatal, Message: err.Error()}
}

func located(message string, loc span.Span) annotate.Diagnostic {
	return annotate.Diagnostic{Behavior: annotate.BehaviorError, Message: message, Location: loc}
}
