package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites hook script source into a form zygomys reads.
// Outside string literals it applies three rewrites:
//
//  1. Keywords become strings: :pillar -> "__kw_pillar". Keywords then need
//     no global symbols that could shadow script variables.
//
//  2. Kebab-case identifiers use underscores: file-object -> file_object.
//     zygomys reads a hyphen as subtraction, so only hyphens between an
//     identifier character and a letter are replaced.
//
//  3. Lisp line comments become zygomys comments: ;; note -> // note.
//     Comment text is copied unchanged.
//
// Double-quoted and backtick strings are copied verbatim.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == '"' || c == '`':
			end := stringEnd(source, i)
			out.WriteString(source[i:end])
			i = end
		case c == ';':
			for i < len(source) && source[i] == ';' {
				i++
			}
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				end = len(source) - i
			}
			out.WriteString("//")
			out.WriteString(source[i : i+end])
			i += end
		case c == ':' && i+1 < len(source) && source[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(source) && isLetter(source[i+1]):
			end := i + 1
			for end < len(source) && isKWChar(source[end]) {
				end++
			}
			fmt.Fprintf(&out, "%q", kwPrefix+source[i+1:end])
			i = end
		case c == '-' && i > 0 && i+1 < len(source) &&
			isIdentChar(source[i-1]) && isLetter(source[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// stringEnd returns the index just past the string literal opening at
// start. Backslash escapes apply inside double quotes only. An unterminated
// literal runs to the end of src.
func stringEnd(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch {
		case quote == '"' && src[i] == '\\':
			i++
		case src[i] == quote:
			return i + 1
		}
	}
	return len(src)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value is a flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_pillar) and plain strings ("2-PILLAR").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toNames flattens string arguments and lists of strings into object names.
func toNames(args []zygo.Sexp) ([]string, error) {
	var names []string
	for i, a := range args {
		if str, ok := a.(*zygo.SexpStr); ok {
			names = append(names, str.S)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		for _, it := range items {
			s, err := toString(it)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			names = append(names, s)
		}
	}
	return names, nil
}

func stringList(items []string) zygo.Sexp {
	out := make([]zygo.Sexp, len(items))
	for i, s := range items {
		out[i] = &zygo.SexpStr{S: s}
	}
	return zygo.MakeList(out)
}

// typeCodes maps script keywords to specific type codes.
var typeCodes = map[string]string{
	"pillar": "2-PILLAR",
	"tbh":    "1-TBH_1",
	"lbh":    "0-LBH_1",
	"deck":   "3-DECK_1",
}

func toTypeCode(s zygo.Sexp) (string, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	if code, ok := typeCodes[strings.ToLower(name)]; ok {
		return code, nil
	}
	return name, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// callContext is what builtins of one run see.
type callContext struct {
	ctx    context.Context
	host   Host
	object string
	script string
	logger *slog.Logger
}

// registerBuiltins installs the hook builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// kebab-case names reach their underscore registrations.
func registerBuiltins(env *zygo.Zlisp, cc *callContext) {
	// (hook-object) returns the name of the object that triggered the run.
	env.AddFunction("hook_object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("hook-object takes no arguments, got %d", len(args))
		}
		return &zygo.SexpStr{S: cc.object}, nil
	})

	// (file-object name) files the object and returns its path string.
	env.AddFunction("file_object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("file-object requires exactly 1 argument, got %d", len(args))
		}
		obj, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("file-object: name: %w", err)
		}
		f, err := cc.host.FileObject(cc.ctx, obj)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("file-object: %w", err)
		}
		return &zygo.SexpStr{S: f.Path.String()}, nil
	})

	// (assign-labels name...) recomputes labels and returns the labels of
	// the last object. Any failure fails the script.
	env.AddFunction("assign_labels", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		names, err := toNames(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assign-labels: %w", err)
		}
		if len(names) == 0 {
			return zygo.SexpNull, fmt.Errorf("assign-labels requires at least one object")
		}
		var last []string
		for _, r := range cc.host.Relabel(cc.ctx, names) {
			if r.Err != nil {
				return zygo.SexpNull, fmt.Errorf("assign-labels: %w", r.Err)
			}
			last = r.Labels
		}
		return stringList(last), nil
	})

	// (reclassify :pillar name...) moves objects to the leaf of a type code
	// and returns how many moved. Failed objects are logged, not raised.
	env.AddFunction("reclassify", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("reclassify requires a type code and at least one object")
		}
		code, err := toTypeCode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("reclassify: code: %w", err)
		}
		names, err := toNames(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("reclassify: %w", err)
		}
		moved := 0
		for _, r := range cc.host.Reclassify(cc.ctx, names, code) {
			if r.Err != nil {
				cc.logger.Warn("reclassify skipped object", "script", cc.script, "object", r.Object, "error", r.Err)
				continue
			}
			moved++
		}
		return &zygo.SexpInt{Val: int64(moved)}, nil
	})

	// (structure-type name) returns the recorded type code, or nil.
	env.AddFunction("structure_type", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("structure-type requires exactly 1 argument, got %d", len(args))
		}
		obj, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("structure-type: name: %w", err)
		}
		st, ok, err := cc.host.StructureType(cc.ctx, obj)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("structure-type: %w", err)
		}
		if !ok || st.IsZero() {
			return zygo.SexpNull, nil
		}
		return &zygo.SexpStr{S: st.Code}, nil
	})

	// (log msg :key value ...) writes an info record tagged with the script.
	env.AddFunction("log", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a := parseArgs(args)
		if len(a.positional) == 0 {
			return zygo.SexpNull, fmt.Errorf("log requires a message")
		}
		msg, err := toString(a.positional[0])
		if err != nil {
			msg = a.positional[0].SexpString(nil)
		}
		attrs := []any{"script", cc.script, "object", cc.object}
		keys := make([]string, 0, len(a.kw))
		for k := range a.kw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := a.kw[k]
			if s, ok := v.(*zygo.SexpStr); ok {
				attrs = append(attrs, k, s.S)
				continue
			}
			attrs = append(attrs, k, v.SexpString(nil))
		}
		cc.logger.Info(msg, attrs...)
		return zygo.SexpNull, nil
	})
}
