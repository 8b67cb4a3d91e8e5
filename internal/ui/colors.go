package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/singsync/internal/lyrics"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	current lipgloss.Style
	sung    lipgloss.Style
	clock   lipgloss.Style
	singers map[lyrics.Speaker]lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(h),
		current: NewBold(t).PaddingLeft(2),
		sung:    NewStyle(h).PaddingLeft(2),
		clock:   NewBold(s),
		singers: map[lyrics.Speaker]lipgloss.Style{
			lyrics.SpeakerA:    NewBold("#3DA9FC"),
			lyrics.SpeakerB:    NewBold("#EF4565"),
			lyrics.SpeakerBoth: NewBold(s),
		},
	}
}

// singer renders the duet part label for raw, the line as typed by the author.
func (p *Palette) singer(raw string) string {
	speaker, _ := lyrics.SplitSpeaker(raw)
	return p.singers[speaker].Render(string(speaker))
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
