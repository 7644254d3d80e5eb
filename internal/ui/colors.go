package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	errorRed     = lipgloss.Color("#E22134")
	warnAmber    = lipgloss.Color("#FFA42B")
	mutedGray    = lipgloss.Color("#727272")
)

var styles = newTheme()

// theme holds the styles used by every view.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	link  lipgloss.Style
}

func newTheme() theme {
	return theme{
		title: lipgloss.NewStyle().Foreground(spotifyGreen).Bold(true).MarginBottom(1),
		ok:    lipgloss.NewStyle().Foreground(spotifyGreen).Bold(true),
		err:   lipgloss.NewStyle().Foreground(errorRed).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(warnAmber),
		help:  lipgloss.NewStyle().Foreground(mutedGray).Italic(true),
		link:  lipgloss.NewStyle().Foreground(spotifyGreen),
	}
}

// playlistDelegate is the default list delegate with the selection drawn in Spotify green.
func playlistDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(spotifyGreen).BorderLeftForeground(spotifyGreen)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(spotifyGreen).BorderLeftForeground(spotifyGreen)
	return d
}
