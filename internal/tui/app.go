// Package tui is the terminal front end. It renders store snapshots and
// forwards user intents to the orchestrator; it holds no business logic.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"thumbcast/internal/catalog"
	"thumbcast/internal/config"
	"thumbcast/internal/domain"
	"thumbcast/internal/share"
	"thumbcast/internal/store"
	"thumbcast/internal/studio"
)

// App ties together views.
type App struct {
	ctx         context.Context
	orch        *studio.Orchestrator
	fetcher     *share.Fetcher
	cfg         config.Config
	snap        store.AppState
	state       appState
	prompt      textinput.Model
	feedCursor  int
	outCursor   int
	collections []string
	colCursor   int
	status      string
	exportDir   string
	width       int
}

type appState string

const (
	viewFeed        appState = "feed"
	viewPrompt      appState = "prompt"
	viewPresets     appState = "presets"
	viewCollections appState = "collections"
)

// StateMsg carries a fresh store snapshot into the program. The store
// subscription is bridged to Program.Send at wiring time.
type StateMsg store.AppState

type statusMsg string
type errMsg struct{ err error }
type collectionsMsg []string
type collectionMsg share.Collection

type resultMsg struct {
	round *domain.Round
	id    string
}

type tickMsg time.Time

func New(ctx context.Context, cfg config.Config, orch *studio.Orchestrator, fetcher *share.Fetcher, snap store.AppState, exportDir string) *App {
	ti := textinput.New()
	ti.Placeholder = "describe your thumbnail..."
	ti.CharLimit = 500
	ti.Width = 72
	return &App{
		ctx:       ctx,
		orch:      orch,
		fetcher:   fetcher,
		cfg:       cfg,
		snap:      snap,
		state:     viewFeed,
		prompt:    ti,
		exportDir: exportDir,
	}
}

func (a *App) Init() tea.Cmd {
	return tick()
}

// tick repaints while outputs are pending so elapsed times advance.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case StateMsg:
		a.snap = store.AppState(m)
		a.clampCursors()
	case tickMsg:
		return a, tick()
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.err.Error()
	case collectionsMsg:
		a.collections = []string(m)
		a.colCursor = 0
		a.state = viewCollections
	case collectionMsg:
		a.orch.SetFeed(m.Rounds, m.ID, "")
		a.state = viewFeed
		a.status = fmt.Sprintf("viewing collection %q", m.Title)
	case resultMsg:
		a.orch.SetFeed([]*domain.Round{m.round}, "", m.id)
		a.state = viewFeed
		a.status = "viewing shared result"
	case tea.KeyMsg:
		if a.state == viewPrompt {
			return a.handlePromptKey(m)
		}
		if a.state == viewPresets {
			return a.handlePresetKey(m)
		}
		if a.state == viewCollections {
			return a.handleCollectionsKey(m)
		}
		return a.handleFeedKey(m)
	}
	return a, nil
}

func (a *App) handleFeedKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := a.snap.Selections
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "g", "/":
		a.state = viewPrompt
		a.prompt.Focus()
		return a, textinput.Blink
	case "p":
		a.state = viewPresets
	case "m":
		a.orch.SetActiveMode(cycle(catalog.ModeOrder, sel.ActiveMode))
	case "l":
		a.orch.SetActiveLayout(cycle(catalog.LayoutOrder, sel.ActiveLayout))
	case "b":
		a.orch.SetBatchMode(!sel.BatchMode)
	case "+", "=":
		a.orch.SetBatchSize(sel.BatchSize + 1)
	case "-":
		a.orch.SetBatchSize(sel.BatchSize - 1)
	case "M":
		a.orch.SetBatchModel(cycle(catalog.ModelOrder, sel.BatchModel))
	case "1", "2":
		idx := int(m.String()[0] - '1')
		if idx < len(catalog.ModelOrder) {
			a.orch.ToggleComparisonModel(catalog.ModelOrder[idx])
		}
	case "up", "k":
		if a.feedCursor > 0 {
			a.feedCursor--
			a.outCursor = 0
		}
	case "down", "j":
		if a.feedCursor < len(a.snap.Feed)-1 {
			a.feedCursor++
			a.outCursor = 0
		}
	case "tab":
		if r := a.currentRound(); r != nil && len(r.Outputs) > 0 {
			a.outCursor = (a.outCursor + 1) % len(r.Outputs)
		}
	case "x":
		if r := a.currentRound(); studio.IsRemovable(r) {
			a.orch.RemoveRound(r.ID)
			a.status = "round removed"
		} else if r != nil {
			a.status = "only your own rounds can be removed"
		}
	case "f":
		if r, o := a.currentRound(), a.currentOutput(); r != nil && o != nil {
			a.orch.ToggleFavorite(r.ID, o.ID)
		}
	case "e":
		if r, o := a.currentRound(), a.currentOutput(); r != nil && o != nil {
			return a, a.exportCmd(r, o.ID)
		}
	case "enter", "F":
		if o := a.currentOutput(); o != nil && o.State == domain.OutputSuccess {
			a.orch.SetFullscreen(o.ID, true, false)
		}
	case "esc":
		if a.snap.View.FullscreenID != "" {
			a.orch.SetFullscreen("", false, false)
		} else if a.snap.View.ActiveCollectionID != "" {
			a.orch.ShowUserRounds()
			a.status = "back to your rounds"
		}
	case "s":
		a.orch.SetScreensaver(!a.snap.View.ScreensaverOn, a.snap.View.ScreensaverSound)
	case "c":
		if a.fetcher == nil {
			a.status = "no collection service configured"
			return a, nil
		}
		a.status = "loading collections..."
		return a, a.listCollectionsCmd()
	}
	return a, nil
}

func (a *App) handlePromptKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.state = viewFeed
		a.prompt.Blur()
		return a, nil
	case "enter":
		text := strings.TrimSpace(a.prompt.Value())
		a.state = viewFeed
		a.prompt.Blur()
		if text == "" {
			return a, nil
		}
		a.prompt.SetValue("")
		if strings.HasPrefix(text, ":") {
			return a, a.runCommand(text[1:])
		}
		return a, a.generateCmd(text)
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(m)
	return a, cmd
}

func (a *App) handlePresetKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	mode, ok := catalog.ModeByKey(a.snap.Selections.ActiveMode)
	if !ok {
		a.state = viewFeed
		return a, nil
	}
	key := m.String()
	switch key {
	case "esc", "q":
		a.state = viewFeed
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if idx := int(key[0] - '1'); idx < len(mode.Presets) {
				a.state = viewFeed
				return a, a.generateCmd(mode.Presets[idx].Prompt)
			}
		}
	}
	return a, nil
}

func (a *App) handleCollectionsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc", "q":
		a.state = viewFeed
	case "up", "k":
		if a.colCursor > 0 {
			a.colCursor--
		}
	case "down", "j":
		if a.colCursor < len(a.collections)-1 {
			a.colCursor++
		}
	case "enter":
		if len(a.collections) > 0 {
			id := a.collections[a.colCursor]
			a.status = "loading " + id + "..."
			return a, a.fetchCollectionCmd(id)
		}
	}
	return a, nil
}

// commands

func (a *App) generateCmd(prompt string) tea.Cmd {
	return func() tea.Msg {
		id, err := a.orch.AddRound(a.ctx, prompt, "", studio.Overrides{})
		if err != nil {
			return errMsg{err}
		}
		if id == "" {
			return statusMsg("select at least one model to compare")
		}
		return statusMsg("generating...")
	}
}

func (a *App) exportCmd(r *domain.Round, outputID string) tea.Cmd {
	round := r.Clone()
	return func() tea.Msg {
		if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
			return errMsg{err}
		}
		// fetched rounds carry externally authored ids of any length
		short := outputID[:min(len(outputID), 8)]
		path := filepath.Join(a.exportDir, fmt.Sprintf("thumb-%s.json", short))
		if err := share.WriteFile(path, &round, outputID); err != nil {
			return errMsg{err}
		}
		return statusMsg("exported " + path)
	}
}

func (a *App) listCollectionsCmd() tea.Cmd {
	return func() tea.Msg {
		ids, err := a.fetcher.ListCollections(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return collectionsMsg(ids)
	}
}

func (a *App) fetchCollectionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		col, err := a.fetcher.FetchCollection(a.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return collectionMsg(col)
	}
}

// runCommand handles ":mode <name>", ":layout <name>", ":result <id>" and
// ":share <base-url>" typed into the prompt, with tolerant matching so
// ":mode cinematc" still lands.
func (a *App) runCommand(cmd string) tea.Cmd {
	verb, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	switch verb {
	case "mode":
		if key, ok := catalog.MatchMode(arg); ok {
			a.orch.SetActiveMode(key)
			a.status = "mode: " + key
		} else {
			a.status = "unknown mode: " + arg
		}
	case "layout":
		if key, ok := catalog.MatchLayout(arg); ok {
			a.orch.SetActiveLayout(key)
			a.status = "layout: " + key
		} else {
			a.status = "unknown layout: " + arg
		}
	case "result":
		if a.fetcher == nil {
			a.status = "no collection service configured"
			return nil
		}
		a.status = "loading result " + arg + "..."
		return a.resultCmd(arg)
	case "share":
		if arg == "" {
			a.status = "usage: :share <base-url>"
			return nil
		}
		a.fetcher = share.NewFetcher(arg)
		a.cfg.Share.BaseURL = arg
		if err := config.Save(a.cfg); err != nil {
			a.status = "share service set (config not saved: " + err.Error() + ")"
		} else {
			a.status = "share service: " + arg
		}
	default:
		a.status = "unknown command: " + verb
	}
	return nil
}

// resultCmd loads one shared result into the feed by id.
func (a *App) resultCmd(id string) tea.Cmd {
	return func() tea.Msg {
		r, err := a.fetcher.FetchRound(a.ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{round: r, id: id}
	}
}

// helpers

func (a *App) currentRound() *domain.Round {
	if a.feedCursor < 0 || a.feedCursor >= len(a.snap.Feed) {
		return nil
	}
	return a.snap.Feed[a.feedCursor]
}

func (a *App) currentOutput() *domain.Output {
	r := a.currentRound()
	if r == nil {
		return nil
	}
	outs := r.SortedOutputs(catalog.ModelRank)
	if a.outCursor < 0 || a.outCursor >= len(outs) {
		return nil
	}
	return outs[a.outCursor]
}

func (a *App) clampCursors() {
	if a.feedCursor >= len(a.snap.Feed) {
		a.feedCursor = 0
	}
	if r := a.currentRound(); r == nil || a.outCursor >= len(r.Outputs) {
		a.outCursor = 0
	}
}

func cycle(order []string, current string) string {
	for i, k := range order {
		if k == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}
