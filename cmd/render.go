package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/coregx/regexlab/annotate"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/match"
	"github.com/coregx/regexlab/span"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	fatalStyle   = color.New(color.FgHiRed, color.Bold, color.Underline)
	headerStyle  = color.New(color.FgCyan, color.Bold)
	matchStyle   = color.New(color.FgBlack, color.BgGreen)
	failureStyle = color.New(color.FgWhite, color.BgRed)
	pcStyle      = color.New(color.FgYellow, color.Bold)
	dimStyle     = color.New(color.FgHiBlack)
)

// classStyles colors annotated tokens by primary class.
var classStyles = map[string]*color.Color{
	"char":       color.New(color.FgWhite),
	"charclass":  color.New(color.FgCyan),
	"esc":        color.New(color.FgMagenta),
	"anchor":     color.New(color.FgHiMagenta, color.Bold),
	"quant":      color.New(color.FgYellow, color.Bold),
	"lazy":       color.New(color.FgHiYellow),
	"possessive": color.New(color.FgHiYellow),
	"alt":        color.New(color.FgRed, color.Bold),
	"group":      color.New(color.FgGreen, color.Bold),
	"set":        color.New(color.FgBlue, color.Bold),
	"special":    color.New(color.FgHiGreen, color.Bold),
	"ref":        color.New(color.FgHiCyan),
	"comment":    dimStyle,
	"invalid":    errorStyle,
}

// negatedSetStyle marks the brackets of a negated class, which share the
// "set" class and differ only in their tooltip.
var negatedSetStyle = color.New(color.FgBlue, color.Bold, color.Underline)

// tokenStyle returns the style of the first class with one.
func tokenStyle(t annotate.Token) *color.Color {
	if t.Tooltip != nil && t.Tooltip.Key == "setnot" && len(t.Classes) > 0 && t.Classes[0] == "set" {
		return negatedSetStyle
	}
	for _, c := range t.Classes {
		if s, ok := classStyles[c]; ok {
			return s
		}
	}
	return nil
}

// paint colors the byte ranges of s. Later ranges win where they overlap.
type paint struct {
	s      string
	styles []*color.Color
}

func newPaint(s string) *paint {
	return &paint{s: s, styles: make([]*color.Color, len(s))}
}

func (p *paint) apply(ix *span.Index, loc span.Span, c *color.Color) {
	start, end := ix.ByteOffset(loc.Start), ix.ByteOffset(loc.End)
	for i := start; i < end && i < len(p.s); i++ {
		p.styles[i] = c
	}
}

func (p *paint) String() string {
	var b strings.Builder
	for i := 0; i < len(p.s); {
		j := i + 1
		for j < len(p.s) && p.styles[j] == p.styles[i] {
			j++
		}
		if p.styles[i] == nil {
			b.WriteString(p.s[i:j])
		} else {
			b.WriteString(p.styles[i].Sprint(p.s[i:j]))
		}
		i = j
	}
	return b.String()
}

// printTokens writes the colored pattern, then one line per token when
// list is set.
func printTokens(w io.Writer, pattern string, tokens []annotate.Token, list bool) {
	ix := span.NewIndex(pattern)
	p := newPaint(pattern)
	for _, t := range tokens {
		if s := tokenStyle(t); s != nil {
			p.apply(ix, t.Location, s)
		}
	}
	fmt.Fprintln(w, p.String())
	if !list {
		return
	}

	for _, t := range tokens {
		text := pattern[ix.ByteOffset(t.Location.Start):ix.ByteOffset(t.Location.End)]
		line := fmt.Sprintf("%-7s %-24s %q", t.Location, strings.Join(t.Classes, ","), text)
		if t.Tooltip != nil {
			line += "  " + dimStyle.Sprint(t.Tooltip.Category+"."+t.Tooltip.Key)
		}
		fmt.Fprintln(w, line)
	}
}

// printDiagnostics writes each diagnostic with a caret line under its
// location in the pattern.
func printDiagnostics(w io.Writer, pattern string, diags []annotate.Diagnostic) {
	ix := span.NewIndex(pattern)
	for _, d := range diags {
		style := errorStyle
		if d.Behavior == annotate.BehaviorFatal {
			style = fatalStyle
		}
		fmt.Fprintf(w, "%s: %s\n", style.Sprint(strings.ToLower(d.Behavior)), d.Message)
		if d.Behavior == annotate.BehaviorFatal || pattern == "" {
			continue
		}
		fmt.Fprintf(w, "  %s\n", pattern)
		start := ix.ByteOffset(d.Location.Start)
		width := max(1, d.Location.Len())
		fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", columns(pattern[:start])), style.Sprint(strings.Repeat("^", width)))
	}
}

// columns approximates the display width of s in runes.
func columns(s string) int {
	return len([]rune(s))
}

func printMatches(w io.Writer, text string, matches []match.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, dimStyle.Sprint("no match"))
		return
	}
	ix := span.NewIndex(text)
	p := newPaint(text)
	for _, m := range matches {
		p.apply(ix, m.Location, matchStyle)
	}
	fmt.Fprintln(w, p.String())

	for i, m := range matches {
		fmt.Fprintf(w, "%s %s %q\n", headerStyle.Sprintf("match %d", i), m.Location, m.Value)
		for j, g := range m.Captures {
			label := fmt.Sprintf("  group %d", j+1)
			if g.Name != nil {
				label += " <" + *g.Name + ">"
			}
			if g.Location == nil {
				fmt.Fprintf(w, "%s %s\n", label, dimStyle.Sprint("unset"))
				continue
			}
			fmt.Fprintf(w, "%s %s %q\n", label, *g.Location, *g.Value)
		}
	}
}

func printMetrics(w io.Writer, text string, m debugger.Metrics) {
	fmt.Fprintf(w, "%s %d/%d  %s %s  cycles %d  resets %d  backtracks %d\n",
		headerStyle.Sprint("step"), m.Step, m.StepCount,
		headerStyle.Sprint("state"), m.State,
		m.TotalCycleCount, m.Resets, m.Backtracks)

	ix := span.NewIndex(text)
	p := newPaint(text)
	for _, tr := range m.Traces {
		p.apply(ix, tr.Location, matchStyle)
	}
	if m.Failure != nil {
		p.apply(ix, *m.Failure, failureStyle)
	}
	fmt.Fprintf(w, "  %s\n", p.String())
	cursor := columns(text[:ix.ByteOffset(m.CurrentOffset)])
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", cursor), pcStyle.Sprint("^"))

	for i, inst := range m.Instructions {
		marker := "  "
		line := fmt.Sprintf("%4d %s", i, inst)
		if i == m.ProgramCounter && m.Step > 0 {
			marker = pcStyle.Sprint("> ")
			line = pcStyle.Sprint(line)
		}
		fmt.Fprintf(w, "%s%s\n", marker, line)
	}
}
