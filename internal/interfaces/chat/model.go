package chat

import (
	"context"
	"fmt"
	"strings"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Asker 问答接口
type Asker interface {
	Ask(ctx context.Context, query string, history []domainRAG.Message, topK int, developerMode bool) (*domainRAG.ChatAnswer, error)
}

// Options 终端客户端参数
type Options struct {
	TopK          int
	DeveloperMode bool
	// MaxHistory 发送给服务端的最大历史消息数，0 表示不限制
	MaxHistory int
	Server     string
}

// answerMsg 一次问答完成
type answerMsg struct {
	query  string
	answer *domainRAG.ChatAnswer
	err    error
}

// turn 一轮对话
type turn struct {
	query  string
	answer *domainRAG.ChatAnswer
	err    error
}

// Model 终端问答界面
// 对话历史只保存在客户端，每次请求随问题发送
type Model struct {
	asker    Asker
	opts     Options
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []domainRAG.Message
	turns    []turn
	pending  bool
	ready    bool
	width    int
}

// New 创建界面模型
func New(asker Asker, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter (/reset clears history)"
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		asker:    asker,
		opts:     opts,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// Init 初始化（光标闪烁）
func (m Model) Init() tea.Cmd { return textinput.Blink }

// History 当前对话历史
func (m Model) History() []domainRAG.Message {
	return m.history
}

// Update 处理按键、窗口与问答结果
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, frame := boxStyle.GetFrameSize()
		// 标题、输入框、状态栏
		reserved := 1 + 3 + 1
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-frame)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}

	case answerMsg:
		m.pending = false
		m.turns = append(m.turns, turn{query: msg.query, answer: msg.answer, err: msg.err})
		if msg.err == nil {
			m.history = append(m.history,
				domainRAG.Message{Role: domainRAG.RoleUser, Content: msg.query},
				domainRAG.Message{Role: domainRAG.RoleAssistant, Content: msg.answer.Answer},
			)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit 发送当前输入
func (m Model) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.pending {
		return m, nil
	}
	m.input.Reset()

	if query == "/reset" {
		m.history = nil
		m.turns = nil
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	}

	m.pending = true
	history := m.recentHistory()
	asker, opts := m.asker, m.opts
	ask := func() tea.Msg {
		answer, err := asker.Ask(context.Background(), query, history, opts.TopK, opts.DeveloperMode)
		return answerMsg{query: query, answer: answer, err: err}
	}
	return m, tea.Batch(ask, m.spinner.Tick)
}

// recentHistory 历史副本，按 MaxHistory 截取最近的消息
func (m Model) recentHistory() []domainRAG.Message {
	history := m.history
	if m.opts.MaxHistory > 0 && len(history) > m.opts.MaxHistory {
		history = history[len(history)-m.opts.MaxHistory:]
	}
	return append([]domainRAG.Message(nil), history...)
}

// View 渲染界面
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("RAG Chat") + " " + dimStyle.Render(m.opts.Server)
	status := dimStyle.Render(fmt.Sprintf("%d messages in history  |  PgUp/PgDn scroll  |  Esc quit", len(m.history)))
	if m.pending {
		status = m.spinner.View() + " thinking..."
	}
	return header + "\n" + boxStyle.Render(m.viewport.View()) + "\n" + inputStyle.Render(m.input.View()) + "\n" + status
}

// renderTranscript 渲染全部对话
func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return dimStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(t.query)
		b.WriteString("\n")
		if t.err != nil {
			b.WriteString(errorStyle.Render("Error: " + t.err.Error()))
			b.WriteString("\n")
			continue
		}
		b.WriteString(assistantStyle.Render("Assistant: "))
		b.WriteString(wrap(t.answer.Answer, m.width))
		b.WriteString("\n")
		b.WriteString(renderSources(t.answer))
		if t.answer.PromptUsed != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("prompt (%d tokens):\n%s", t.answer.PromptTokens, *t.answer.PromptUsed)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderSources 渲染置信度与引用
func renderSources(answer *domainRAG.ChatAnswer) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("confidence %.0f%%", answer.Confidence*100)))
	b.WriteString("\n")
	for i, src := range answer.Sources {
		location := src.Source
		if src.Page != nil {
			location = fmt.Sprintf("%s p.%d", src.Source, *src.Page)
		}
		b.WriteString(sourceStyle.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, location, src.SimilarityScore)))
		b.WriteString("\n")
	}
	return b.String()
}

// wrap 按宽度折行
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width - 4).Render(text)
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
