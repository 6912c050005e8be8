// Package ui holds the lipgloss styles shared by the CLI commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderAccent renders s as a highlighted value (ids, engine names,
// counts).
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass renders s as a successful outcome.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders s as a non-fatal problem.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderError renders s as a failure.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderDim renders s as secondary detail.
func RenderDim(s string) string { return dimStyle.Render(s) }
