package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

// DefaultPalette is the terminal palette used by the CLI.
var DefaultPalette = NewPalette("#1DB954", "#04B575", "#FF5F56", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
//
// A nil *Palette renders text unstyled.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a palette from title, success, error, warning and help colors.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func (p *Palette) render(style func(*Palette) lipgloss.Style, s string) string {
	if p == nil {
		return s
	}
	return style(p).Render(s)
}

func (p *Palette) Title(s string) string {
	return p.render(func(p *Palette) lipgloss.Style { return p.title }, s)
}

func (p *Palette) OK(s string) string {
	return p.render(func(p *Palette) lipgloss.Style { return p.ok }, s)
}

func (p *Palette) Err(s string) string {
	return p.render(func(p *Palette) lipgloss.Style { return p.err }, s)
}

func (p *Palette) Warn(s string) string {
	return p.render(func(p *Palette) lipgloss.Style { return p.warn }, s)
}

func (p *Palette) Help(s string) string {
	return p.render(func(p *Palette) lipgloss.Style { return p.help }, s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
