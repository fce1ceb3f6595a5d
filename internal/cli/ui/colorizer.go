package ui

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

// Colorizer holds a named color theme and renders styled text against it.
type Colorizer struct {
	theme         string
	noColor       bool
	titleColor    *color.Color
	subtitleColor *color.Color
	successColor  *color.Color
	errorColor    *color.Color
	warningColor  *color.Color
	infoColor     *color.Color
	dimColor      *color.Color
	boldColor     *color.Color
	agentColor    *color.Color
	userColor     *color.Color
	systemColor   *color.Color
	valueColor    *color.Color
	helpColor     *color.Color
}

// NewColorizer creates a Colorizer for the named theme ("dark", "light",
// or "auto").
func NewColorizer(theme string) *Colorizer {
	noColor := os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"

	colorizer := &Colorizer{
		theme:   theme,
		noColor: noColor,
	}

	colorizer.setupTheme()
	return colorizer
}

func (c *Colorizer) setupTheme() {
	if c.noColor {
		c.titleColor = color.New()
		c.subtitleColor = color.New()
		c.successColor = color.New()
		c.errorColor = color.New()
		c.warningColor = color.New()
		c.infoColor = color.New()
		c.dimColor = color.New()
		c.boldColor = color.New()
		c.agentColor = color.New()
		c.userColor = color.New()
		c.systemColor = color.New()
		c.valueColor = color.New()
		c.helpColor = color.New()
		return
	}

	switch c.theme {
	case "light":
		c.setupLightTheme()
	case "dark":
		c.setupDarkTheme()
	case "auto":
		if c.isDarkTerminal() {
			c.setupDarkTheme()
		} else {
			c.setupLightTheme()
		}
	default:
		c.setupDarkTheme()
	}
}

func (c *Colorizer) setupDarkTheme() {
	c.titleColor = color.New(color.FgCyan, color.Bold)
	c.subtitleColor = color.New(color.FgBlue)
	c.successColor = color.New(color.FgGreen)
	c.errorColor = color.New(color.FgRed, color.Bold)
	c.warningColor = color.New(color.FgYellow)
	c.infoColor = color.New(color.FgCyan)
	c.dimColor = color.New(color.Faint)
	c.boldColor = color.New(color.Bold)
	c.agentColor = color.New(color.FgBlue, color.Bold)
	c.userColor = color.New(color.FgGreen)
	c.systemColor = color.New(color.FgMagenta)
	c.valueColor = color.New(color.FgYellow)
	c.helpColor = color.New(color.FgWhite)
}

func (c *Colorizer) setupLightTheme() {
	c.titleColor = color.New(color.FgBlue, color.Bold)
	c.subtitleColor = color.New(color.FgBlue)
	c.successColor = color.New(color.FgGreen, color.Bold)
	c.errorColor = color.New(color.FgRed, color.Bold)
	c.warningColor = color.New(color.FgRed)
	c.infoColor = color.New(color.FgBlue)
	c.dimColor = color.New(color.Faint)
	c.boldColor = color.New(color.Bold)
	c.agentColor = color.New(color.FgBlue, color.Bold)
	c.userColor = color.New(color.FgGreen, color.Bold)
	c.systemColor = color.New(color.FgMagenta)
	c.valueColor = color.New(color.FgRed)
	c.helpColor = color.New(color.FgBlack)
}

func (c *Colorizer) isDarkTerminal() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))

	return !strings.Contains(term, "light") && !strings.Contains(colorTerm, "light")
}

// Title renders text in the theme's title color.
func (c *Colorizer) Title(text string) string {
	return c.titleColor.Sprint(text)
}

// Subtitle renders text in the theme's subtitle color.
func (c *Colorizer) Subtitle(text string) string {
	return c.subtitleColor.Sprint(text)
}

// Success renders text in the theme's success color.
func (c *Colorizer) Success(text string) string {
	return c.successColor.Sprint(text)
}

// Error renders text in the theme's error color.
func (c *Colorizer) Error(text string) string {
	return c.errorColor.Sprint(text)
}

// Warning renders text in the theme's warning color.
func (c *Colorizer) Warning(text string) string {
	return c.warningColor.Sprint(text)
}

// Info renders text in the theme's info color.
func (c *Colorizer) Info(text string) string {
	return c.infoColor.Sprint(text)
}

// Dim renders faint text.
func (c *Colorizer) Dim(text string) string {
	return c.dimColor.Sprint(text)
}

// Bold renders bold text.
func (c *Colorizer) Bold(text string) string {
	return c.boldColor.Sprint(text)
}

// Agent renders text attributed to the orchestrator's responses.
func (c *Colorizer) Agent(text string) string {
	return c.agentColor.Sprint(text)
}

// User renders text attributed to the operator's input.
func (c *Colorizer) User(text string) string {
	return c.userColor.Sprint(text)
}

// System renders system/status text.
func (c *Colorizer) System(text string) string {
	return c.systemColor.Sprint(text)
}

// Value renders a data value.
func (c *Colorizer) Value(text string) string {
	return c.valueColor.Sprint(text)
}

// Help renders help text.
func (c *Colorizer) Help(text string) string {
	return c.helpColor.Sprint(text)
}

// Divider renders a horizontal rule.
func (c *Colorizer) Divider() string {
	line := strings.Repeat("─", 60)
	return c.dimColor.Sprint(line)
}

// Highlight renders highlighted text.
func (c *Colorizer) Highlight(text string) string {
	highlightColor := color.New(color.BgYellow, color.FgBlack)
	return highlightColor.Sprint(text)
}

// Code renders inline code text, such as a SQL fragment.
func (c *Colorizer) Code(text string) string {
	codeColor := color.New(color.FgCyan, color.Faint)
	return codeColor.Sprint(text)
}

// Link renders a link.
func (c *Colorizer) Link(text string) string {
	linkColor := color.New(color.FgBlue, color.Underline)
	return linkColor.Sprint(text)
}

// Quote renders quoted text.
func (c *Colorizer) Quote(text string) string {
	quoteColor := color.New(color.FgYellow, color.Italic)
	return quoteColor.Sprint(text)
}

// Progress renders a completed/total progress bar.
func (c *Colorizer) Progress(completed, total int) string {
	if total == 0 {
		return ""
	}

	percentage := float64(completed) / float64(total) * 100
	filled := int(percentage / 5)

	progressBar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)

	if percentage >= 100 {
		return c.successColor.Sprintf("[%s] %.0f%%", progressBar, percentage)
	} else if percentage >= 50 {
		return c.infoColor.Sprintf("[%s] %.0f%%", progressBar, percentage)
	} else {
		return c.warningColor.Sprintf("[%s] %.0f%%", progressBar, percentage)
	}
}

// Status renders a connection or operation status string in the color
// matching its meaning.
func (c *Colorizer) Status(status string) string {
	switch strings.ToLower(status) {
	case "connected", "active", "ready", "success", "healthy":
		return c.Success(status)
	case "disconnected", "error", "failed", "unhealthy":
		return c.Error(status)
	case "pending", "connecting", "degraded", "warning":
		return c.Warning(status)
	default:
		return c.Info(status)
	}
}

// TableHeader renders a table header cell.
func (c *Colorizer) TableHeader(text string) string {
	return c.boldColor.Sprint(text)
}

// TableRow renders a table body cell.
func (c *Colorizer) TableRow(text string) string {
	return text
}

// TableAltRow renders an alternating table body cell.
func (c *Colorizer) TableAltRow(text string) string {
	return c.dimColor.Sprint(text)
}

// Badge renders text as a colored pill, such as an "active" marker next
// to a connection.
func (c *Colorizer) Badge(text, badgeType string) string {
	var badgeColor *color.Color

	switch strings.ToLower(badgeType) {
	case "success", "green":
		badgeColor = color.New(color.BgGreen, color.FgWhite, color.Bold)
	case "error", "red":
		badgeColor = color.New(color.BgRed, color.FgWhite, color.Bold)
	case "warning", "yellow":
		badgeColor = color.New(color.BgYellow, color.FgBlack, color.Bold)
	case "info", "blue":
		badgeColor = color.New(color.BgBlue, color.FgWhite, color.Bold)
	default:
		badgeColor = color.New(color.BgWhite, color.FgBlack, color.Bold)
	}

	return badgeColor.Sprintf(" %s ", text)
}

// GetTheme returns the active theme name.
func (c *Colorizer) GetTheme() string {
	return c.theme
}

// SetTheme switches the active theme and recomputes its colors.
func (c *Colorizer) SetTheme(theme string) {
	c.theme = theme
	c.setupTheme()
}

// IsColorEnabled reports whether color output is enabled.
func (c *Colorizer) IsColorEnabled() bool {
	return !c.noColor
}

// DisableColor forces plain, uncolored output.
func (c *Colorizer) DisableColor() {
	c.noColor = true
	c.setupTheme()
}

// EnableColor re-enables colored output.
func (c *Colorizer) EnableColor() {
	c.noColor = false
	c.setupTheme()
}
