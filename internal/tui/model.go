package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"comprendre/internal/domain"
	"comprendre/internal/kb"
	"comprendre/internal/profile"
	"comprendre/internal/service"
)

// BuildFunc builds the knowledge base and returns a ready chat session. The
// session must be usable even when err reports a degraded state (no
// documents, knowledge base unavailable); only a nil session is fatal.
type BuildFunc func(progress kb.ProgressFunc) (*service.Session, error)

type state int

const (
	stateBuilding state = iota
	stateReady
	stateDegraded
	stateAnswering
)

type (
	progressMsg      float64
	buildDoneMsg     struct {
		session *service.Session
		err     error
	}
	streamStartedMsg struct{ ch <-chan domain.Fragment }
	askFailedMsg     struct{ err error }
	fragmentMsg      domain.Fragment
	streamDoneMsg    struct{}
)

// Model is the Bubble Tea model for the chat assistant.
type Model struct {
	ctx        context.Context
	prof       profile.Profile
	buildFn    BuildFunc
	progressCh chan float64

	session  *service.Session
	state    state
	status   string
	partial  string
	streamCh <-chan domain.Fragment

	input    textinput.Model
	viewport viewport.Model
	bar      progress.Model
	percent  float64
	ready    bool
}

// New creates a chat model for one domain profile.
func New(ctx context.Context, prof profile.Profile, buildFn BuildFunc) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Posez votre question..."
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:        ctx,
		prof:       prof,
		buildFn:    buildFn,
		progressCh: make(chan float64, 8),
		state:      stateBuilding,
		status:     "Analyse des documents de référence...",
		input:      ti,
		viewport:   vp,
		bar:        progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startBuild(), m.waitProgress())
}

func (m Model) startBuild() tea.Cmd {
	return func() tea.Msg {
		session, err := m.buildFn(func(f float64) {
			select {
			case m.progressCh <- f:
			default:
			}
		})
		return buildDoneMsg{session: session, err: err}
	}
}

func (m Model) waitProgress() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.progressCh
		if !ok {
			return nil
		}
		return progressMsg(f)
	}
}

func (m Model) startAsk(question string) tea.Cmd {
	return func() tea.Msg {
		ch, err := m.session.AskStream(m.ctx, question)
		if err != nil {
			return askFailedMsg{err: err}
		}
		return streamStartedMsg{ch: ch}
	}
}

func readFragment(ch <-chan domain.Fragment) tea.Cmd {
	return func() tea.Msg {
		frag, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return fragmentMsg(frag)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + tagline, status, input box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.bar.Width = max(20, msg.Width-8)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case progressMsg:
		if f := float64(msg); f > m.percent {
			m.percent = f
		}
		return m, m.waitProgress()

	case buildDoneMsg:
		m.session = msg.session
		m.percent = 1
		switch {
		case msg.err == nil:
			m.state = stateReady
			m.status = "✅ Assistant opérationnel. Posez votre question."
			m.input.Focus()
		case errors.Is(msg.err, domain.ErrNoDocuments):
			m.state = stateDegraded
			m.status = "❌ Aucun document .txt trouvé : réponses indisponibles."
		case errors.Is(msg.err, domain.ErrNotAvailable):
			m.state = stateDegraded
			m.status = "❌ Base de connaissances indisponible."
		default:
			m.state = stateDegraded
			m.status = "❌ Erreur d'initialisation : " + msg.err.Error()
		}
		if m.state == stateDegraded && m.session != nil {
			// Questions still get the fixed fallback answer.
			m.input.Focus()
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case streamStartedMsg:
		m.streamCh = msg.ch
		m.partial = ""
		return m, readFragment(m.streamCh)

	case askFailedMsg:
		m.state = stateReady
		m.status = "⚠️ Une erreur est survenue : " + msg.err.Error()
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case fragmentMsg:
		if msg.Err != nil {
			m.status = "⚠️ Une erreur est survenue : " + msg.Err.Error()
		} else {
			m.partial += msg.Text
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, readFragment(m.streamCh)

	case streamDoneMsg:
		m.state = stateReady
		m.partial = ""
		m.streamCh = nil
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && (m.state == stateReady || m.state == stateDegraded) {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.input.Reset()
				prev := m.state
				m.state = stateAnswering
				if prev == stateReady {
					m.status = "Recherche dans les fiches..."
				}
				m.viewport.SetContent(m.renderTranscript())
				return m, m.startAsk(q)
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}
	header := titleStyle.Render(m.prof.Title)
	tagline := taglineStyle.Render(m.prof.Tagline)
	status := statusStyle.Render(m.status)
	if m.state == stateBuilding {
		return header + "\n" + tagline + "\n\n" + m.bar.ViewAs(m.percent) + "\n" + status
	}
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + tagline + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if m.session == nil {
		return ""
	}
	var b strings.Builder
	for _, msg := range m.session.Conversation().Messages() {
		b.WriteString(renderMessage(msg.Role, msg.Content))
		b.WriteString("\n\n")
	}
	if m.state == stateAnswering && m.partial != "" {
		b.WriteString(renderMessage(domain.RoleAssistant, m.partial+"▌"))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMessage(role domain.Role, content string) string {
	label := userLabelStyle.Render("Vous")
	if role == domain.RoleAssistant {
		label = assistantLabelStyle.Render("Assistant")
	}
	return fmt.Sprintf("%s\n%s", label, content)
}

var (
	titleStyle          = lipgloss.NewStyle().Bold(true)
	taglineStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	chatBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)
