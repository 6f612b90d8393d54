package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

var (
	colorTeal  = lipgloss.Color("#20B9B4")
	colorGold  = lipgloss.Color("#F4D03F")
	colorRed   = lipgloss.Color("#E74C3C")
	colorSlate = lipgloss.Color("#2C4A54")
)

// styles holds the output styles. They are all plain unless the output is a
// terminal.
type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	color  bool
}

func newStyles(w io.Writer) styles {
	plain := lipgloss.NewStyle()
	s := styles{title: plain, header: plain, muted: plain, warn: plain, err: plain}
	if !isTerminal(w) {
		return s
	}
	s.title = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	s.header = lipgloss.NewStyle().Bold(true).Foreground(colorTeal).Padding(0, 1)
	s.muted = lipgloss.NewStyle().Foreground(colorSlate)
	s.warn = lipgloss.NewStyle().Foreground(colorGold)
	s.err = lipgloss.NewStyle().Foreground(colorRed)
	s.color = true
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// table renders rows under headers.
func (s styles) table(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow && s.color {
				return s.header
			}
			return cell
		})
	if s.color {
		t = t.BorderStyle(s.muted)
	}
	return t.String()
}
