package regexlab_test

import (
	"context"
	"fmt"

	"github.com/coregx/regexlab"
)

// ExampleAnnotate shows the classification of an escape.
func ExampleAnnotate() {
	res := regexlab.Annotate(`\d`, nil)
	tok := res.Tokens[0]
	fmt.Println(tok.Location, tok.Classes[0], tok.Tooltip.Category, tok.Tooltip.Key)
	// Output: 0-2 charclass charclasses digit
}

// ExampleDebug reports the final state of a run that backtracks once.
func ExampleDebug() {
	m, err := regexlab.Debug(context.Background(), `a(b|c)`, "ac", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(m.State, m.StepCount, m.Backtracks)
	// Output: accept 7 1
}

// ExampleMatch lists every match with the g option.
func ExampleMatch() {
	matches, err := regexlab.Match(context.Background(), `\d+`, "a1 b22", []string{"g"})
	if err != nil {
		panic(err)
	}
	for _, m := range matches {
		fmt.Println(m.Location, m.Value)
	}
	// Output:
	// 1-2 1
	// 4-6 22
}
