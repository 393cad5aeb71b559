// Package engine evaluates block scripts. It wraps zygomys in a sandboxed
// environment and produces a topology.Document from user source code.
package engine

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hexablock/pkg/topology"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/sirupsen/logrus"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is an advisory finding about the evaluated document.
type EvalWarning struct {
	Message string
	Element topology.ElementRef
}

func (w EvalWarning) String() string {
	if w.Element.IsZero() {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Element, w.Message)
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Document *topology.Document
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	log     logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	discard := logrus.New()
	discard.Out = io.Discard
	e := &Engine{timeout: EvalTimeout, log: discard}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes block-script source and produces a new Document.
//
// Return semantics:
//   - On success: returns document + nil errors + nil error
//   - On parse/eval failure: returns nil document + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*topology.Document, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		doc, evalErrs, err := e.evaluate(source)
		ch <- evalResult{doc: doc, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// EvaluateAll evaluates source and validates the resulting document.
// Blocking validation findings are returned as errors, advisory ones as
// warnings. A fatal failure is returned as err.
func (e *Engine) EvaluateAll(source string) (*EvalResult, error) {
	doc, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, err
	}
	res := &EvalResult{Document: doc, Errors: evalErrs}
	if doc == nil {
		return res, nil
	}
	v := topology.ValidateAll(doc)
	for _, ve := range v.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, Element: w.Element})
	}
	e.log.WithFields(logrus.Fields{
		"document": doc.Name,
		"errors":   len(res.Errors),
		"warnings": len(res.Warnings),
	}).Debug("evaluated")
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*topology.Document, []EvalError, error) {
	doc := topology.New("")

	// Empty source is a valid program that produces an empty document.
	if strings.TrimSpace(source) == "" {
		return doc, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, doc)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return doc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
