package trace

import (
	"strconv"
	"strings"

	"github.com/sandrolain/gosmt/pkg/types"
)

// splitField is a bufio.SplitFunc over the body of one trace line.
// Parentheses and semicolons are tokens of their own; a |quoted| name is a
// single token even if it contains spaces or delimiters.
func splitField(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}
	if start == len(data) {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	switch data[start] {
	case '(', ')', ';':
		return start + 1, data[start : start+1], nil
	case '|':
		for i := start + 1; i < len(data); i++ {
			if data[i] == '|' {
				return i + 1, data[start : i+1], nil
			}
		}
		if atEOF {
			return len(data), data[start:], nil
		}
		return start, nil, nil
	}

	for i := start; i < len(data); i++ {
		if isSpace(data[i]) || isDelimiter(data[i]) {
			return i, data[start:i], nil
		}
	}
	if atEOF {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

// splitFields applies splitField to a complete line body.
func splitFields(body string, into []string) []string {
	data := []byte(body)
	for len(data) > 0 {
		adv, tok, _ := splitField(data, true)
		if adv == 0 {
			break
		}
		if tok != nil {
			into = append(into, string(tok))
		}
		data = data[adv:]
	}
	return into
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == ';'
}

// fieldReader walks the fields of one line and builds positioned errors.
type fieldReader struct {
	tag    string
	line   int
	fields []string
	i      int
}

func (r *fieldReader) done() bool {
	return r.i >= len(r.fields)
}

func (r *fieldReader) peek() string {
	if r.done() {
		return ""
	}
	return r.fields[r.i]
}

func (r *fieldReader) next(what string) (string, error) {
	if r.done() {
		return "", r.missing(what)
	}
	f := r.fields[r.i]
	r.i++
	return f, nil
}

func (r *fieldReader) accept(s string) bool {
	if r.peek() == s && !r.done() {
		r.i++
		return true
	}
	return false
}

func (r *fieldReader) expect(s string) error {
	f, err := r.next(strconv.Quote(s))
	if err != nil {
		return err
	}
	if f != s {
		return r.bad(s, f)
	}
	return nil
}

func (r *fieldReader) ref(what string) (TermRef, error) {
	f, err := r.next(what)
	if err != nil {
		return TermRef{}, err
	}
	ref, ok := ParseTermRef(f)
	if !ok {
		return TermRef{}, types.NewLineError(types.ErrTraceBadRef,
			"["+r.tag+"] "+what+" is not a term reference", r.line).WithExpected("#N").WithToken(f)
	}
	return ref, nil
}

// refs reads term references until the end of the line or a delimiter.
func (r *fieldReader) refs(what string) ([]TermRef, error) {
	var out []TermRef
	for !r.done() && !isDelimiterField(r.peek()) {
		ref, err := r.ref(what)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func (r *fieldReader) int(what string) (int, error) {
	f, err := r.next(what)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.Atoi(f)
	if perr != nil {
		return 0, r.bad(what, f)
	}
	return n, nil
}

func (r *fieldReader) key() (uint64, error) {
	f, err := r.next("match key")
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(f, "0x") {
		return 0, r.bad("0x... match key", f)
	}
	k, perr := strconv.ParseUint(f[2:], 16, 64)
	if perr != nil {
		return 0, r.bad("0x... match key", f)
	}
	return k, nil
}

// literal reads #N or (not #N).
func (r *fieldReader) literal() (Literal, error) {
	if r.accept("(") {
		if err := r.expect("not"); err != nil {
			return Literal{}, err
		}
		ref, err := r.ref("literal")
		if err != nil {
			return Literal{}, err
		}
		if err := r.expect(")"); err != nil {
			return Literal{}, err
		}
		return Literal{Term: ref, Negated: true}, nil
	}
	ref, err := r.ref("literal")
	if err != nil {
		return Literal{}, err
	}
	return Literal{Term: ref}, nil
}

func (r *fieldReader) rest() []string {
	out := r.fields[r.i:]
	r.i = len(r.fields)
	return out
}

func (r *fieldReader) end() error {
	if !r.done() {
		return r.bad("end of line", r.peek())
	}
	return nil
}

func (r *fieldReader) missing(what string) *types.Error {
	return types.NewLineError(types.ErrTraceFieldCount, "["+r.tag+"] missing "+what, r.line).
		WithExpected(what).WithToken("")
}

func (r *fieldReader) bad(expected, found string) *types.Error {
	return types.NewLineError(types.ErrTraceBadField, "["+r.tag+"] malformed field", r.line).
		WithExpected(expected).WithToken(found)
}

func isDelimiterField(f string) bool {
	return f == "(" || f == ")" || f == ";"
}

// unbar strips the bars of a |quoted| name.
func unbar(s string) string {
	if len(s) >= 2 && s[0] == '|' && s[len(s)-1] == '|' {
		return s[1 : len(s)-1]
	}
	return s
}
