package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6))
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)).Width(16)
	pcStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3))
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1))
)

func field(key string, value any) string {
	return keyStyle.Render(key) + " " + fmt.Sprint(value)
}
