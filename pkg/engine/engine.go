// Package engine runs hook scripts written in zygomys Lisp. Each run gets a
// fresh sandboxed environment with the steel filing builtins installed and
// the triggering object bound, and is cut off after a hard timeout.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/steel"
)

// ErrTimeout is returned when a script runs longer than the engine timeout.
var ErrTimeout = errors.New("script evaluation timed out")

// EvalError represents an error in script code, such as a parse error or a
// failing builtin call.
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

// Host is the filing surface scripts can call into.
type Host interface {
	FileObject(ctx context.Context, name string) (*steel.Filing, error)
	Reclassify(ctx context.Context, objects []string, code string) []steel.Result
	Relabel(ctx context.Context, objects []string) []steel.Result
	StructureType(ctx context.Context, name string) (model.StructureType, bool, error)
}

// Script is one named hook script.
type Script struct {
	Name   string
	Source string
}

// Result is the outcome of one script run.
type Result struct {
	Value  string      // printed value of the last expression
	Errors []EvalError // script errors; empty on success
}

// Failed reports whether the script produced errors.
func (r Result) Failed() bool { return len(r.Errors) > 0 }

// Err folds the script errors into one error, or nil.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Engine evaluates hook scripts. It is safe for concurrent use; each call
// to Run creates a fresh sandboxed environment.
type Engine struct {
	host    Host
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger used by the log builtin.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine whose builtins call into host.
func NewEngine(host Host, opts ...Option) *Engine {
	e := &Engine{host: host, timeout: EvalTimeout, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run evaluates script for the object named object.
//
// Return semantics:
//   - On success: returns a result with no errors and a nil error
//   - On parse/eval failure: returns a result carrying the errors and a nil error
//   - On fatal failure (timeout, panic, cancelled context): returns a non-nil error
func (e *Engine) Run(ctx context.Context, script Script, object string) (Result, error) {
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation of %s: %v", script.Name, r)}
			}
		}()

		res, err := e.evaluate(ctx, script, object)
		ch <- evalResult{result: res, err: err}
	}()

	return waitWithTimeout(ctx, ch, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, script Script, object string) (Result, error) {
	// Empty source is a valid script that does nothing.
	if strings.TrimSpace(script.Source) == "" {
		return Result{}, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &callContext{
		ctx:    ctx,
		host:   e.host,
		object: object,
		script: script.Name,
		logger: e.logger,
	})

	if err := env.LoadString(preprocessSource(script.Source)); err != nil {
		return Result{Errors: parseZygomysError(err)}, nil
	}

	v, err := env.Run()
	if err != nil {
		return Result{Errors: parseZygomysError(err)}, nil
	}
	out := Result{}
	if v != nil {
		out.Value = v.SexpString(nil)
	}
	return out, nil
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
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
