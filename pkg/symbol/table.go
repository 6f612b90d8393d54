package symbol

// Table interns symbol and keyword text for one session.
//
// A nil *Table is valid and disables interning: Intern then behaves like New.
type Table struct {
	strings map[string]string
	hits    int
}

// NewTable creates an empty intern table.
func NewTable() *Table {
	return &Table{strings: make(map[string]string, 256)}
}

// Intern returns the symbol for text. Repeated calls with equal text return
// equal symbols backed by the same string storage.
func (t *Table) Intern(text string) Symbol {
	return Symbol{name: t.intern(text)}
}

// InternKeyword returns the keyword for name, with or without its colon.
func (t *Table) InternKeyword(name string) Keyword {
	k := NewKeyword(name)
	k.name = t.intern(k.name)
	return k
}

// InternBytes interns text given as bytes. The bytes are copied only the
// first time a distinct text is seen.
func (t *Table) InternBytes(text []byte) Symbol {
	if t == nil {
		return Symbol{name: string(text)}
	}
	// The compiler does not allocate for map lookups keyed by string(b).
	if s, ok := t.strings[string(text)]; ok {
		t.hits++
		return Symbol{name: s}
	}
	s := string(text)
	t.strings[s] = s
	return Symbol{name: s}
}

// Len returns the number of distinct strings in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.strings)
}

// Hits returns how many Intern calls were served from existing storage.
func (t *Table) Hits() int {
	if t == nil {
		return 0
	}
	return t.hits
}

func (t *Table) intern(text string) string {
	if t == nil {
		return text
	}
	if s, ok := t.strings[text]; ok {
		t.hits++
		return s
	}
	t.strings[text] = text
	return text
}
