package accounts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imbios/cohe/internal/domain"
)

// View pairs an account with its render context. Stats carries a fresh
// reading when one was fetched; otherwise the cached snapshot is shown.
type View struct {
	Account domain.Account
	Active  bool
	Stats   *domain.UsageStats
}

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

func renderView(views []View, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("cohe accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(views))),
	}

	if len(views) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured. Run 'cohe account add' first."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, view := range views {
		lines = append(lines, s.section.Render(renderAccount(view, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(view View, opts RenderOptions, s styles) string {
	parts := []string{renderTitle(view, s)}

	parts = append(parts, s.detail.Render(fmt.Sprintf("priority: %d", view.Account.Priority)))
	parts = append(parts, renderUsageLine(view, opts, s))

	if lastUsed := view.Account.LastUsed; lastUsed != nil {
		parts = append(parts, s.detail.Render("last used: "+formatRelative(*lastUsed, opts.Now)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTitle(view View, s styles) string {
	name := strings.TrimSpace(view.Account.Name)
	if name == "" {
		name = string(view.Account.ID)
	}
	title := fmt.Sprintf("%s (%s)", name, view.Account.Provider.DisplayName())

	switch {
	case !view.Account.Enabled:
		return s.disabled.Render(title + " [disabled]")
	case view.Active:
		return s.active.Render("▸ " + title + " [active]")
	default:
		return s.account.Render("  " + title)
	}
}

func renderUsageLine(view View, opts RenderOptions, s styles) string {
	percent, remaining, fetchedAt, known := usageReading(view)
	if !known {
		return s.detail.Render("usage: n/a")
	}

	bar := renderProgressBar(percent, 24, s)
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.detail.Render("usage:"),
		" ",
		bar,
		" ",
		s.detail.Render(fmt.Sprintf("%5.1f%% used, %.0f remaining", percent, remaining)),
	)

	if isStale(fetchedAt, opts) {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

// usageReading prefers a fresh fetch over the cached snapshot.
func usageReading(view View) (percent, remaining float64, fetchedAt time.Time, known bool) {
	if view.Stats != nil && view.Stats.Available() {
		return view.Stats.PercentUsed, view.Stats.Remaining, time.Time{}, true
	}
	if usage := view.Account.Usage; usage != nil && usage.Limit > 0 {
		return usage.Used / usage.Limit * 100, usage.Limit - usage.Used, usage.LastUpdated, true
	}
	return 0, 0, time.Time{}, false
}

func isStale(fetchedAt time.Time, opts RenderOptions) bool {
	if fetchedAt.IsZero() || opts.Now.IsZero() || opts.StaleAfter <= 0 {
		return false
	}
	return opts.Now.Sub(fetchedAt) > opts.StaleAfter
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	filled := int(math.Round(float64(width) * used / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.IsZero() || t.After(now) {
		return t.Format("15:04 on 02 Jan")
	}

	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		minutes := int(elapsed.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case elapsed < 24*time.Hour:
		hours := int(elapsed.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(elapsed.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
