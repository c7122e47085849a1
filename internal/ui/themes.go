package ui

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the panel chrome. The chart keeps its configured color.
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor

	Border lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
	Focus  lipgloss.AdaptiveColor
}

// buildTheme creates a theme from [light, dark] pairs
func buildTheme(name string, primary, secondary, success, warning, errorColor, border, muted, focus [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   lipgloss.AdaptiveColor{Light: primary[0], Dark: primary[1]},
		Secondary: lipgloss.AdaptiveColor{Light: secondary[0], Dark: secondary[1]},
		Success:   lipgloss.AdaptiveColor{Light: success[0], Dark: success[1]},
		Warning:   lipgloss.AdaptiveColor{Light: warning[0], Dark: warning[1]},
		Error:     lipgloss.AdaptiveColor{Light: errorColor[0], Dark: errorColor[1]},
		Border:    lipgloss.AdaptiveColor{Light: border[0], Dark: border[1]},
		Muted:     lipgloss.AdaptiveColor{Light: muted[0], Dark: muted[1]},
		Focus:     lipgloss.AdaptiveColor{Light: focus[0], Dark: focus[1]},
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"},
		[2]string{"#059669", "#10B981"}, [2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"},
		[2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#7C3AED", "#A855F7"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"},
		[2]string{"#006600", "#00FF00"}, [2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"},
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#000080", "#8080FF"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"},
		[2]string{"#2F855A", "#68D391"}, [2]string{"#C05621", "#F6AD55"}, [2]string{"#C53030", "#FC8181"},
		[2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"}, [2]string{"#4A5568", "#CBD5E0"})
)

var (
	currentTheme  atomic.Pointer[Theme]
	colorDisabled atomic.Bool
)

func init() {
	SetTheme(&DefaultTheme)
}

// GetTheme returns the current active theme
func GetTheme() Theme {
	return *currentTheme.Load()
}

// SetTheme sets the active theme
func SetTheme(theme *Theme) {
	t := *theme
	currentTheme.Store(&t)
}

// SetThemeByName sets the theme by name
func SetThemeByName(name string) bool {
	switch name {
	case "default":
		SetTheme(&DefaultTheme)
	case "high-contrast":
		SetTheme(&HighContrastTheme)
	case "minimal":
		SetTheme(&MinimalTheme)
	default:
		return false
	}
	return true
}

// GetAvailableThemes returns list of available theme names
func GetAvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// SetColorDisabled turns styling off regardless of NO_COLOR
func SetColorDisabled(disabled bool) {
	colorDisabled.Store(disabled)
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return colorDisabled.Load() || os.Getenv("NO_COLOR") != ""
}

// Styles contains the styled components of the panel
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Section lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Spinner lipgloss.Style
	Box     lipgloss.Style
	Frame   lipgloss.Style
}

// GetStyles builds styles for the current theme. With color disabled every style is plain
// apart from borders and bold text.
func GetStyles() *Styles {
	theme := GetTheme()
	plain := IsColorDisabled()

	fg := func(s lipgloss.Style, c lipgloss.AdaptiveColor) lipgloss.Style {
		if plain {
			return s
		}
		return s.Foreground(c)
	}
	border := func(s lipgloss.Style, c lipgloss.AdaptiveColor) lipgloss.Style {
		if plain {
			return s
		}
		return s.BorderForeground(c)
	}

	return &Styles{
		Theme: theme,

		Header:  fg(lipgloss.NewStyle().Bold(true).Padding(0, 1), theme.Primary),
		Section: fg(lipgloss.NewStyle().Bold(true), theme.Secondary),
		Body:    lipgloss.NewStyle(),
		Muted:   fg(lipgloss.NewStyle(), theme.Muted),
		Key:     fg(lipgloss.NewStyle().Bold(true), theme.Focus),

		Success: fg(lipgloss.NewStyle().Bold(true), theme.Success),
		Warning: fg(lipgloss.NewStyle().Bold(true), theme.Warning),
		Error:   fg(lipgloss.NewStyle().Bold(true), theme.Error),

		Spinner: fg(lipgloss.NewStyle(), theme.Primary),
		Box:     border(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1), theme.Border),
		Frame:   border(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2), theme.Primary),
	}
}
