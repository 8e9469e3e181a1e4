package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coregx/regexlab/annotate"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/match"
	"github.com/coregx/regexlab/span"
)

func newHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	h, err := NewHandler(opts...)
	require.NoError(t, err)
	return h
}

func step(n int) *int { return &n }

func TestHandleParseExpression(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{Method: MethodParseExpression, Pattern: "a+"})
	require.False(t, resp.Failed(), "%v", resp.Error)
	assert.Equal(t, MethodParseExpression, resp.Method)

	var tokens []annotate.Token
	require.NoError(t, json.Unmarshal(resp.Result, &tokens))
	require.NotEmpty(t, tokens)
	assert.Equal(t, span.New(1, 2), tokens[len(tokens)-1].Location)
}

func TestHandleParseExpressionError(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{Method: MethodParseExpression, Pattern: "😀(b"})
	require.True(t, resp.Failed())
	assert.Nil(t, resp.Result)
	require.Len(t, resp.Error, 1)
	assert.Equal(t, annotate.BehaviorError, resp.Error[0].Behavior)
	assert.Equal(t, span.New(2, 3), resp.Error[0].Location)
}

func TestHandleMatch(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{
		Method:       MethodMatch,
		Pattern:      `(\d)+`,
		Text:         "a1b22",
		MatchOptions: []string{"g"},
	})
	require.False(t, resp.Failed(), "%v", resp.Error)

	var matches []match.Match
	require.NoError(t, json.Unmarshal(resp.Result, &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "22", matches[1].Value)
	assert.Equal(t, span.New(3, 5), matches[1].Location)
}

func TestHandleMatchNone(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{Method: MethodMatch, Pattern: "z", Text: "abc"})
	require.False(t, resp.Failed())
	assert.JSONEq(t, `[]`, string(resp.Result))
}

func TestHandleDebug(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{
		Method:  MethodDebug,
		Pattern: "a(b|c)",
		Text:    "ac",
		Step:    step(4),
	})
	require.False(t, resp.Failed(), "%v", resp.Error)

	var m debugger.Metrics
	require.NoError(t, json.Unmarshal(resp.Result, &m))
	assert.Equal(t, 4, m.Step)
	assert.Equal(t, 7, m.StepCount)
	assert.Equal(t, 3, m.ProgramCounter)
	assert.Equal(t, 1, m.Backtracks)
	require.NotNil(t, m.Failure)
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		behavior string
		location span.Span
		message  string
	}{
		{
			name:     "debug parse error",
			req:      Request{Method: MethodDebug, Pattern: "a(b", Text: "ab"},
			behavior: annotate.BehaviorError,
			location: span.New(1, 2),
		},
		{
			name:     "debug unsupported construct",
			req:      Request{Method: MethodDebug, Pattern: "(?R)", Text: "a"},
			behavior: annotate.BehaviorError,
			location: span.New(0, 4),
		},
		{
			name:     "match parse error",
			req:      Request{Method: MethodMatch, Pattern: "a(b", Text: "ab"},
			behavior: annotate.BehaviorError,
			location: span.New(1, 2),
		},
		{
			name:     "match unsupported construct",
			req:      Request{Method: MethodMatch, Pattern: "(?R)", Text: "a"},
			behavior: annotate.BehaviorError,
			location: span.New(0, 4),
		},
		{
			name:     "invalid option",
			req:      Request{Method: MethodMatch, Pattern: "a", MatchOptions: []string{"bogus"}},
			behavior: annotate.BehaviorError,
			message:  "bogus",
		},
		{
			name:     "unknown method",
			req:      Request{Method: "convertToDSL", Pattern: "a"},
			behavior: annotate.BehaviorError,
			message:  "unknown method",
		},
	}
	h := newHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Handle(context.Background(), tt.req)
			require.Len(t, resp.Error, 1)
			assert.Nil(t, resp.Result)
			d := resp.Error[0]
			assert.Equal(t, tt.behavior, d.Behavior)
			assert.Equal(t, tt.location, d.Location)
			assert.Contains(t, d.Message, tt.message)
		})
	}
}

func TestHandleStepLimit(t *testing.T) {
	cfg := debugger.DefaultConfig()
	cfg.MaxSteps = 10
	h := newHandler(t, WithDebuggerConfig(cfg))
	resp := h.Handle(context.Background(), Request{Method: MethodDebug, Pattern: "a*b", Text: strings.Repeat("a", 50)})
	require.Len(t, resp.Error, 1)
	assert.Equal(t, annotate.BehaviorError, resp.Error[0].Behavior)
	assert.Contains(t, resp.Error[0].Message, "step limit exceeded")
}

func TestHandleCanceled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHandler(t, WithLogger(zap.New(core)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := h.Handle(ctx, Request{Method: MethodDebug, Pattern: "a", Text: "a"})
	require.Len(t, resp.Error, 1)
	assert.Equal(t, annotate.BehaviorFatal, resp.Error[0].Behavior)

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "debug", failed[0].ContextMap()["method"])
}

func TestHandleLogsServedRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHandler(t, WithLogger(zap.New(core)))
	h.Handle(context.Background(), Request{Method: MethodParseExpression, Pattern: "abc"})

	served := logs.FilterMessage("request served").All()
	require.Len(t, served, 1)
	assert.Equal(t, "parseExpression", served[0].ContextMap()["method"])
	assert.Equal(t, int64(0), served[0].ContextMap()["diagnostics"])
}

func TestDiagnoseReplayInconsistency(t *testing.T) {
	err := &debugger.ReplayInconsistencyError{StepCount: 5, Target: 3, Reached: 2, Reason: "bounded pass ended before the target step"}
	d := Diagnose("a", err)
	assert.Equal(t, annotate.BehaviorFatal, d.Behavior)
	assert.Contains(t, d.Message, "internal error")
	assert.Equal(t, span.Span{}, d.Location)
}

func TestDiagnoseUnknownError(t *testing.T) {
	d := Diagnose("a", context.DeadlineExceeded)
	assert.Equal(t, annotate.BehaviorFatal, d.Behavior)
	assert.Equal(t, context.DeadlineExceeded.Error(), d.Message)
}

func TestNewHandlerValidates(t *testing.T) {
	_, err := NewHandler(WithMatchConfig(match.Config{}))
	var mce *match.ConfigError
	assert.ErrorAs(t, err, &mce)

	_, err = NewHandler(WithDebuggerConfig(debugger.Config{}))
	var dce *debugger.ConfigError
	assert.ErrorAs(t, err, &dce)
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(
		`{"method":"debug","pattern":"a","text":"ab","matchOptions":["i"],"step":2}`))
	require.NoError(t, err)
	assert.Equal(t, Request{
		Method:       MethodDebug,
		Pattern:      "a",
		Text:         "ab",
		MatchOptions: []string{"i"},
		Step:         step(2),
	}, req)

	_, err = DecodeRequest(strings.NewReader(`{"method":"debug","bogus":1}`))
	assert.ErrorContains(t, err, "api: decode request")
}

func TestResponseJSON(t *testing.T) {
	h := newHandler(t)
	resp := h.Handle(context.Background(), Request{Method: MethodMatch, Pattern: "a(b", Text: "ab"})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "match", raw["method"])
	assert.Nil(t, raw["result"])
	errs, ok := raw["error"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, map[string]any{"start": 1.0, "end": 2.0}, errs[0].(map[string]any)["location"])
}
