package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/lorebound/adventure-engine/internal/engine"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

const PlaceHolderText = "What do you do?"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	adventure     *state.Adventure
	events        []state.Event
	chatViewport  viewport.Model
	sceneViewport viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool
	status        string

	// Scenario selection state
	showScenarioModal bool
	scenarios         []scenario.Scenario
	selectedScenario  int
	loadingScenarios  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResultMsg struct {
	result *engine.TurnResult
	err    error
}

type undoMsg struct {
	events    []state.Event
	adventure *state.Adventure
	err       error
}

type scenariosLoadedMsg struct {
	scenarios []scenario.Scenario
	err       error
}

type adventureCreatedMsg struct {
	adventure *state.Adventure
	opening   *state.Event
	err       error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	sceneVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		textarea:          ta,
		chatViewport:      chatVp,
		sceneViewport:     sceneVp,
		ready:             false,
		showScenarioModal: true,
		loadingScenarios:  true,
		selectedScenario:  0,
	}
}

func (m *ConsoleUI) writeSceneContent() {
	if m.adventure == nil {
		return
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("SCENE") + "\n\n")

	scene := m.adventure.Scene
	if scene == nil {
		m.sceneViewport.SetContent(content.String())
		return
	}
	if scene.LocationName != "" {
		content.WriteString("Location:\n" + scene.LocationName + "\n\n")
	}
	if scene.TimeOfDay != "" || scene.Weather != "" {
		content.WriteString(strings.TrimSpace(scene.TimeOfDay+" "+scene.Weather) + "\n\n")
	}
	if len(scene.CharactersPresent) > 0 {
		content.WriteString("Present:\n")
		for _, name := range scene.CharactersPresent {
			line := "• " + name
			if m.adventure.IsPC(name) {
				line += " (you)"
			}
			content.WriteString(line + "\n")
		}
		content.WriteString("\n")
	}
	if scene.Situation != "" {
		content.WriteString("Situation:\n")
		content.WriteString(wordwrap.String(scene.Situation, m.sceneViewport.Width-2) + "\n\n")
	}

	content.WriteString(fmt.Sprintf("Turns: %d\n\n", m.adventure.NextSequence))

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /say /do: Action type\n")
	content.WriteString("• /undo: Undo last turn\n")
	content.WriteString("• /copy: Copy transcript\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.sceneViewport.SetContent(content.String())
}

// writeChatContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	if m.adventure != nil {
		content.WriteString(m.adventure.Title + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for i := range m.events {
		e := &m.events[i]
		if e.ActionType != state.ActionStory {
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.PlayerInput, chatWidth-6) + "\n\n")
		}
		if text := e.NarrativeText(); text != "" {
			content.WriteString(formatNarrative(text, chatWidth) + "\n\n")
		}
	}

	if m.status != "" {
		content.WriteString(loadingStyle.Render(m.status) + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatNarrative wraps narrative text and highlights character speaker
// prefixes like "Greta: ...".
func formatNarrative(text string, width int) string {
	wrapped := wordwrap.String(text, width-2)
	lines := strings.Split(wrapped, "\n")
	var formatted []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formatted = append(formatted, "")
			continue
		}
		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formatted = append(formatted, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}
		formatted = append(formatted, narratorStyle.Render(line))
	}
	return strings.Join(formatted, "\n")
}

// plainTranscript renders the story without styles, for the clipboard.
func (m *ConsoleUI) plainTranscript() string {
	var sb strings.Builder
	for i := range m.events {
		e := &m.events[i]
		if e.ActionType != state.ActionStory {
			sb.WriteString(e.PlayerText() + "\n\n")
		}
		if text := e.NarrativeText(); text != "" {
			sb.WriteString(text + "\n\n")
		}
	}
	return sb.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showScenarioModal {
		return m.loadScenarios()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.sceneViewport, svCmd = m.sceneViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, svCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		m.writeSceneContent()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			actionType := state.ActionDo
			if cmd, rest, handled := m.parseCommand(input); handled {
				if cmd == nil {
					m.textarea.Reset()
					m.writeChatContent()
					return m, nil
				}
				actionType = *cmd
				input = rest
				if input == "" {
					return m, nil
				}
			} else if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			m.status = ""
			m.progressTick = 0
			m.writeChatContent()

			return m, tea.Batch(m.sendTurn(actionType, input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.events = append(m.events, *msg.result.Event)
			if m.adventure != nil {
				m.adventure.Scene = msg.result.Scene
				m.adventure.NextSequence = msg.result.Event.Sequence + 1
			}
			if msg.result.AwaitingPCInput && len(msg.result.PCPrompts) > 0 {
				m.status = msg.result.PCPrompts[0].CharacterName + ": " + msg.result.PCPrompts[0].Prompt
			}
		}
		m.writeChatContent()
		m.writeSceneContent()

	case undoMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.events = msg.events
			m.adventure = msg.adventure
			m.status = "Last turn undone."
		}
		m.writeChatContent()
		m.writeSceneContent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.sceneViewport, svCmd = m.sceneViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, svCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	sceneWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.sceneViewport.Width = sceneWidth - 2
	m.sceneViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// parseCommand recognizes action-type prefixes like "/say hello".
func (m *ConsoleUI) parseCommand(input string) (*state.ActionType, string, bool) {
	lower := strings.ToLower(input)
	for prefix, t := range map[string]state.ActionType{
		"/say ":   state.ActionSay,
		"/do ":    state.ActionDo,
		"/story ": state.ActionStory,
	} {
		if strings.HasPrefix(lower, prefix) {
			at := t
			return &at, strings.TrimSpace(input[len(prefix):]), true
		}
	}
	return nil, "", false
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		m.status = "Type an action and press Enter. /say <text> speaks, /do <text> acts, /story <text> narrates. /undo rewinds one turn, /copy copies the transcript."
	case "/undo":
		m.textarea.Reset()
		m.loading = true
		m.err = nil
		m.status = ""
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.sendUndo(), progressTick())
	case "/copy":
		if err := clipboard.WriteAll(m.plainTranscript()); err != nil {
			m.err = fmt.Errorf("copy failed: %w", err)
		} else {
			m.status = "Transcript copied to clipboard."
		}
	default:
		m.status = "Unknown command. Try /help."
	}

	m.textarea.Reset()
	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) sendTurn(actionType state.ActionType, input string) tea.Cmd {
	return func() tea.Msg {
		result, err := takeTurn(m.client, m.config.APIBaseURL, m.adventure.ID, engine.TurnRequest{
			ActionType: actionType,
			Input:      input,
		})
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) sendUndo() tea.Cmd {
	return func() tea.Msg {
		undo, err := undoTurn(m.client, m.config.APIBaseURL, m.adventure.ID)
		if err != nil {
			return undoMsg{err: err}
		}
		events, err := getEvents(m.client, m.config.APIBaseURL, m.adventure.ID)
		if err != nil {
			return undoMsg{err: err}
		}
		return undoMsg{events: events, adventure: undo.Adventure}
	}
}

func (m ConsoleUI) loadScenarios() tea.Cmd {
	return func() tea.Msg {
		scenarios, err := listScenarios(m.client, m.config.APIBaseURL)
		return scenariosLoadedMsg{scenarios, err}
	}
}

func (m ConsoleUI) startAdventure(scenarioID string) tea.Cmd {
	return func() tea.Msg {
		created, err := createAdventure(m.client, m.config.APIBaseURL, scenarioID)
		if err != nil {
			return adventureCreatedMsg{err: err}
		}
		return adventureCreatedMsg{adventure: created.Adventure, opening: created.Opening}
	}
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenariosLoadedMsg:
		m.loadingScenarios = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenarios = msg.scenarios
		}

	case adventureCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.adventure = msg.adventure
			if msg.opening != nil {
				m.events = []state.Event{*msg.opening}
			}
			m.showScenarioModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.writeChatContent()
			m.writeSceneContent()
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingScenarios {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) > 0 && m.err == nil {
				m.loading = true
				return m, m.startAdventure(m.scenarios[m.selectedScenario].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showScenarioModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Adventure?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit? Your adventure is saved and can be resumed.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingScenarios:
		content.WriteString(modalTitleStyle.Render("Loading Scenarios..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching available scenarios..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load scenarios: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Adventure..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the scene..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Scenario"))
		content.WriteString("\n\n")

		for i, s := range m.scenarios {
			label := s.Title
			if s.Description != "" {
				label += " - " + s.Description
			}
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + label))
			} else {
				content.WriteString(modalItemStyle.Render("  " + label))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	sceneWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 2).Render(
		m.sceneViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, scenePanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
