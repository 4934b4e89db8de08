package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const termBarWidth = 20

// termDisplay draws the OSD as a single redrawn line on a terminal.
// It is meant for sessions without a compositor and for debugging.
type termDisplay struct {
	w    io.Writer
	open bool
	mode Mode
	icon string
	text string

	label lipgloss.Style
	fill  lipgloss.Style
	empty lipgloss.Style
	value lipgloss.Style
	muted lipgloss.Style
}

func newTermDisplay(w io.Writer) *termDisplay {
	r := lipgloss.NewRenderer(w)
	return &termDisplay{
		w:     w,
		label: r.NewStyle().Bold(true).Width(7),
		fill:  r.NewStyle().Foreground(lipgloss.Color("#27ae60")),
		empty: r.NewStyle().Foreground(lipgloss.Color("#666666")),
		value: r.NewStyle().Bold(true),
		muted: r.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true),
	}
}

func (d *termDisplay) Open(mode Mode) error {
	d.open = true
	d.mode = mode
	d.icon, d.text = "", ""
	return nil
}

func (d *termDisplay) Close(Mode) error {
	if !d.open {
		return nil
	}
	d.open = false
	_, err := fmt.Fprintln(d.w)
	return err
}

func (d *termDisplay) SetIcon(path string) error {
	d.icon = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return d.draw()
}

func (d *termDisplay) SetLevelText(text string) error {
	d.text = text
	return d.draw()
}

func (d *termDisplay) draw() error {
	if !d.open {
		return nil
	}
	_, err := fmt.Fprint(d.w, "\r"+d.line())
	return err
}

func (d *termDisplay) line() string {
	valueStyle := d.value
	if strings.HasSuffix(d.icon, "mute") {
		valueStyle = d.muted
	}

	parts := []string{d.label.Render(d.mode.String())}
	if pct, err := strconv.ParseFloat(d.text, 64); err == nil && d.mode == ModeVolume {
		filled := int(pct / 100 * termBarWidth)
		filled = max(0, min(termBarWidth, filled))
		parts = append(parts,
			d.fill.Render(strings.Repeat("█", filled))+
				d.empty.Render(strings.Repeat("░", termBarWidth-filled)))
	}
	parts = append(parts, valueStyle.Render(d.text))
	if d.icon != "" {
		parts = append(parts, d.empty.Render("("+d.icon+")"))
	}
	return strings.Join(parts, " ")
}
