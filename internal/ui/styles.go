package ui

import "github.com/charmbracelet/lipgloss"

var (
	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light Gray
	pointStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // Cyan/Teal
	cachedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // Dim
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // Green
			Bold(true)
	labelStyle = lipgloss.NewStyle().
			Width(12).
			Foreground(lipgloss.Color("212"))
)
