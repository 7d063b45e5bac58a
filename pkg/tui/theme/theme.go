package theme

import (
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/taskboard/pkg/timeline"
)

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Header   HeaderTheme
	Footer   FooterTheme
	Modal    ModalTheme
	Timeline timeline.Styles
}

// HeaderTheme styles the board title line.
type HeaderTheme struct {
	Title  lipgloss.Style
	Filter lipgloss.Style
	Muted  lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Key    lipgloss.Style
}

// ModalTheme styles centered modal overlays such as the task editor.
type ModalTheme struct {
	Frame    lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
}

// Names of the built-in themes.
const (
	NameDark  = "dark"
	NameLight = "light"
)

// Named returns the theme called name, falling back to Default.
func Named(name string) Theme {
	if name == NameLight {
		return Light()
	}
	return Default()
}

// Default returns the built-in theme used across the UI. It is tuned for
// dark terminals.
func Default() Theme {
	accent := lipgloss.Color("212")
	return Theme{
		Header: HeaderTheme{
			Title:  lipgloss.NewStyle().Foreground(accent).Bold(true),
			Filter: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
			Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		},
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
			Key:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(accent).
				Padding(1, 2),
			Title:    lipgloss.NewStyle().Bold(true),
			Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Value:    lipgloss.NewStyle(),
			Selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		},
		Timeline: timeline.DefaultStyles(),
	}
}

// Light is Default with colours that stay readable on a light background.
func Light() Theme {
	th := Default()
	accent := lipgloss.Color("162")
	th.Header.Title = th.Header.Title.Foreground(accent)
	th.Header.Filter = th.Header.Filter.Foreground(lipgloss.Color("25"))
	th.Header.Muted = th.Header.Muted.Foreground(lipgloss.Color("240"))
	th.Footer.Help = th.Footer.Help.Foreground(lipgloss.Color("240"))
	th.Footer.Status = th.Footer.Status.Foreground(lipgloss.Color("238"))
	th.Footer.Key = th.Footer.Key.Foreground(accent)
	th.Modal.Frame = th.Modal.Frame.BorderForeground(accent)
	th.Modal.Label = th.Modal.Label.Foreground(lipgloss.Color("240"))
	th.Modal.Selected = th.Modal.Selected.Foreground(accent)

	tl := &th.Timeline
	tl.Ruler = tl.Ruler.Foreground(lipgloss.Color("240"))
	tl.Month = tl.Month.Foreground(accent)
	tl.NonWorking = tl.NonWorking.Foreground(lipgloss.Color("160")).Background(lipgloss.Color("254"))
	tl.Group = tl.Group.Foreground(lipgloss.Color("25"))
	tl.GroupLine = tl.GroupLine.Foreground(lipgloss.Color("250"))
	tl.Label = tl.Label.Foreground(lipgloss.Color("235"))
	tl.LabelActive = tl.LabelActive.Foreground(accent)
	tl.Empty = tl.Empty.Foreground(lipgloss.Color("242"))
	return th
}
