package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"thumbcast/internal/catalog"
	"thumbcast/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	favStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

func (a *App) View() string {
	if a.snap.View.ScreensaverOn {
		return a.renderScreensaver()
	}
	var body string
	switch a.state {
	case viewPrompt:
		body = a.renderPrompt()
	case viewPresets:
		body = a.renderPresets()
	case viewCollections:
		body = a.renderCollections()
	default:
		body = a.renderFeed()
	}
	out := titleStyle.Render("thumbcast") + "  " + a.renderSelections() + "\n\n" + body
	if a.status != "" {
		out += "\n" + statusStyle.Render(a.status)
	}
	out += "\n" + dimStyle.Render(a.helpLine())
	return out
}

func (a *App) renderSelections() string {
	sel := a.snap.Selections
	var parts []string
	if mode, ok := catalog.ModeByKey(sel.ActiveMode); ok {
		parts = append(parts, mode.Emoji+" "+mode.Name)
	}
	if layout, ok := catalog.LayoutByKey(sel.ActiveLayout); ok {
		parts = append(parts, layout.Emoji+" "+layout.Name)
	}
	if sel.BatchMode {
		model := sel.BatchModel
		if m, ok := catalog.ModelByKey(sel.BatchModel); ok {
			model = m.ShortName
		}
		parts = append(parts, fmt.Sprintf("batch ×%d %s", sel.BatchSize, model))
	} else {
		names := make([]string, 0, len(sel.ComparisonModels))
		for _, k := range sel.ComparisonModels {
			if m, ok := catalog.ModelByKey(k); ok {
				names = append(names, m.ShortName)
			}
		}
		if len(names) == 0 {
			parts = append(parts, "compare: none")
		} else {
			parts = append(parts, "compare: "+strings.Join(names, " vs "))
		}
	}
	return dimStyle.Render(strings.Join(parts, "  ·  "))
}

func (a *App) renderFeed() string {
	if len(a.snap.Feed) == 0 {
		return dimStyle.Render("no rounds yet — press g to generate, p for presets")
	}
	var b strings.Builder
	for i, r := range a.snap.Feed {
		cursor := "  "
		if i == a.feedCursor {
			cursor = selectedStyle.Render("> ")
		}
		prompt := r.Prompt
		if len(prompt) > 64 {
			prompt = prompt[:64] + "…"
		}
		line := fmt.Sprintf("%s%s", cursor, prompt)
		if r.CreatedBy != domain.CreatedByAnonymous {
			line += dimStyle.Render("  [shared]")
		}
		if r.HasFavorites {
			line += favStyle.Render("  ♥")
		}
		b.WriteString(line + "\n")
		b.WriteString(a.renderOutputs(r, i == a.feedCursor))
		if r.Seo != nil && i == a.feedCursor {
			b.WriteString(dimStyle.Render("    seo: "+r.Seo.Title) + "\n")
		}
	}
	return b.String()
}

func (a *App) renderOutputs(r *domain.Round, active bool) string {
	var b strings.Builder
	outs := r.SortedOutputs(catalog.ModelRank)
	for j, o := range outs {
		marker := "   "
		if active && j == a.outCursor {
			marker = selectedStyle.Render(" ▸ ")
		}
		name := o.Model
		if m, ok := catalog.ModelByKey(o.Model); ok {
			name = m.ShortName
		}
		var glyph, detail string
		switch o.State {
		case domain.OutputSuccess:
			glyph = successStyle.Render("✓")
			detail = dimStyle.Render(fmt.Sprintf("%.1fs · %d bytes", o.TotalTime.Seconds(), len(o.Source)))
		case domain.OutputError:
			glyph = errorStyle.Render("✗")
			detail = errorStyle.Render("failed")
		default:
			glyph = pendingStyle.Render("◐")
			detail = pendingStyle.Render(fmt.Sprintf("%.0fs…", time.Since(o.StartedAt).Seconds()))
		}
		fav := ""
		for _, id := range r.FavoritedOutputIDs {
			if id == o.ID {
				fav = favStyle.Render(" ♥")
			}
		}
		b.WriteString(fmt.Sprintf("%s%s %-8s %s%s\n", marker, glyph, name, detail, fav))
	}
	return b.String()
}

func (a *App) renderPrompt() string {
	return "new round\n\n" + a.prompt.View() + "\n\n" + dimStyle.Render("enter to generate, esc to cancel")
}

func (a *App) renderPresets() string {
	mode, ok := catalog.ModeByKey(a.snap.Selections.ActiveMode)
	if !ok {
		return dimStyle.Render("no active mode")
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s presets\n\n", mode.Emoji, mode.Name))
	for i, p := range mode.Presets {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, p.Label))
	}
	b.WriteString("\n" + dimStyle.Render("press a number to generate, esc to go back"))
	return b.String()
}

func (a *App) renderCollections() string {
	if len(a.collections) == 0 {
		return dimStyle.Render("no shared collections")
	}
	var b strings.Builder
	b.WriteString("shared collections\n\n")
	for i, id := range a.collections {
		cursor := "  "
		if i == a.colCursor {
			cursor = selectedStyle.Render("> ")
		}
		b.WriteString(cursor + id + "\n")
	}
	return b.String()
}

func (a *App) renderScreensaver() string {
	var favs int
	for _, r := range a.snap.UserRounds {
		favs += len(r.FavoritedOutputIDs)
	}
	return titleStyle.Render("thumbcast") + "\n\n" +
		dimStyle.Render(fmt.Sprintf("screensaver · %d rounds · %d favorites · press s to wake",
			len(a.snap.UserRounds), favs))
}

func (a *App) helpLine() string {
	switch a.state {
	case viewPrompt, viewPresets, viewCollections:
		return ""
	}
	return "g generate · p presets · m mode · l layout · b batch · +/- size · M model · 1/2 compare · f fav · e export · x remove · c collections · s saver · q quit"
}
