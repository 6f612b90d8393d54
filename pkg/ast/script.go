package ast

import "strings"

// Script is a fully parsed SMT-LIB source: the commands in file order.
//
// Scripts are built by parser.Parse for convenience. Streaming consumers
// should drive parser.Parser with a Visitor instead, which keeps only one
// command alive at a time.
type Script struct {
	commands []Command
	source   string
}

// NewScript creates a Script from decoded commands.
func NewScript(commands []Command, source string) *Script {
	return &Script{
		commands: commands,
		source:   source,
	}
}

// Commands returns the commands in file order.
func (s *Script) Commands() []Command {
	return s.commands
}

// Len returns the number of commands.
func (s *Script) Len() int {
	return len(s.commands)
}

// Source returns the original source text, if it was retained.
func (s *Script) Source() string {
	return s.source
}

// Append adds a command at the end of the script.
func (s *Script) Append(c Command) {
	s.commands = append(s.commands, c)
}

// Accept replays every command into v in order. It stops at the first
// error returned by the visitor.
func (s *Script) Accept(v Visitor) error {
	for _, c := range s.commands {
		if err := c.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

// String renders the script with one command per line.
func (s *Script) String() string {
	var sb strings.Builder
	for _, c := range s.commands {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
