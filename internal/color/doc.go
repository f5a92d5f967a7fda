// Package color holds the terminal palette used by devcheck's console output.
//
// Styles adapt to light and dark terminals through lipgloss adaptive colors.
// Call Initialize once at startup when the background is known; NO_COLOR is
// honored by lipgloss itself.
package color
