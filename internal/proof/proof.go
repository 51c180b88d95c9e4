// Package proof provides a plain-text implementation of the Proof
// interface: one line per search event, suitable for external replay
// of the decisions and inferences the engine made.
package proof

import (
	"bufio"
	"fmt"
	"io"

	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// TextLogger writes search events to a writer, one per line. It is
// not safe for concurrent use; the engine is single-threaded.
type TextLogger struct {
	w *bufio.Writer
}

var _ homsearch.Proof = (*TextLogger)(nil)

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: bufio.NewWriter(w)}
}

// Flush writes out any buffered events.
func (l *TextLogger) Flush() error { return l.w.Flush() }

func (l *TextLogger) Guessing(depth int, pattern, target homsearch.NamedVertex) {
	fmt.Fprintf(l.w, "guessing depth=%d %v -> %v\n", depth, pattern, target)
}

func (l *TextLogger) PropagationFailure(decisions [][2]int, pattern, target homsearch.NamedVertex) {
	fmt.Fprintf(l.w, "propagation failure at %v -> %v under %v\n", pattern, target, decisions)
}

func (l *TextLogger) UnitPropagating(pattern, target homsearch.NamedVertex) {
	fmt.Fprintf(l.w, "unit propagating %v -> %v\n", pattern, target)
}

func (l *TextLogger) StartLevel(level int) {
	fmt.Fprintf(l.w, "start level %d\n", level)
}

func (l *TextLogger) BackUpToLevel(level int) {
	fmt.Fprintf(l.w, "back up to level %d\n", level)
}

func (l *TextLogger) ForgetLevel(level int) {
	fmt.Fprintf(l.w, "forget level %d\n", level)
}

func (l *TextLogger) IncorrectGuess(decisions [][2]int, wasTrueUnsat bool) {
	fmt.Fprintf(l.w, "incorrect guess %v (unsat=%v)\n", decisions, wasTrueUnsat)
}

func (l *TextLogger) OutOfGuesses(decisions [][2]int) {
	fmt.Fprintf(l.w, "out of guesses under %v\n", decisions)
}

func (l *TextLogger) PostRestartNogood(decisions [][2]int) {
	fmt.Fprintf(l.w, "restart nogood %v\n", decisions)
}

func (l *TextLogger) PostSolution(solution [][2]homsearch.NamedVertex) {
	fmt.Fprintf(l.w, "solution")
	for _, pair := range solution {
		fmt.Fprintf(l.w, " %v=%v", pair[0], pair[1])
	}
	fmt.Fprintln(l.w)
}

func (l *TextLogger) BackUpToTop() {
	fmt.Fprintln(l.w, "back up to top")
}
