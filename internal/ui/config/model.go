package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeView           ConfigMode = iota // Show current settings
	ModeForm                             // Editing
	ModeValidating                       // Testing the server connection
	ModeValidateResult                   // Show the connection test result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the configuration written to disk.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	BaseURL string
	Err     error
}

type configSavedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// HealthCheck tests whether an API server answers at baseURL.
type HealthCheck func(ctx context.Context, baseURL string) error

// formBindings keeps field values on the heap so huh's Value pointers stay
// valid across Bubble Tea model copies.
type formBindings struct {
	baseURL     string
	author      string
	commentSecs string
	unreadSecs  string
}

// Model is the settings view: client connection and poll intervals.
type Model struct {
	mode      ConfigMode
	cfg       model.AppConfig
	path      string
	check     HealthCheck
	form      *huh.Form
	fb        *formBindings
	spinner   spinner.Model
	validURL  string
	validErr  error
	statusMsg string
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates a settings view for cfg, saved to path.
func New(cfg model.AppConfig, path string, check HealthCheck, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeView,
		cfg:     cfg,
		path:    path,
		check:   check,
		fb:      &formBindings{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init resets the view to the overview.
func (m *Model) Init() tea.Cmd {
	m.mode = ModeView
	m.statusMsg = ""
	return nil
}

// Config returns the settings as last saved.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// Update handles messages and dispatches based on the current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case configSavedInternalMsg:
		m.mode = ModeView
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved. Server and poll changes apply on next start."
		saved := msg.cfg
		return m, func() tea.Msg { return ConfigSavedMsg{Config: saved} }

	case ValidateResultMsg:
		m.mode = ModeValidateResult
		m.validURL = msg.BaseURL
		m.validErr = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeView:
			return m.handleViewKeys(msg)
		case ModeValidating:
			if key.Matches(msg, m.keys.Back) {
				m.mode = ModeView
			}
			return m, nil
		case ModeValidateResult:
			m.mode = ModeView
			return m, nil
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case msg.String() == "e":
		m.statusMsg = ""
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case msg.String() == "enter":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate(m.cfg.Client.BaseURL))
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	m.fb.baseURL = m.cfg.Client.BaseURL
	m.fb.author = m.cfg.Client.Author
	m.fb.commentSecs = strconv.Itoa(m.cfg.Poll.CommentIntervalSec)
	m.fb.unreadSecs = strconv.Itoa(m.cfg.Poll.UnreadIntervalSec)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Where the taskboard API runs").
				Placeholder("http://localhost:8080").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Comment author").
				Description("Name shown on comments you post (empty posts as Anonymous)").
				Value(&m.fb.author),
			huh.NewInput().
				Title("Comment poll (seconds)").
				Value(&m.fb.commentSecs).
				Validate(validateSeconds),
			huh.NewInput().
				Title("Unread poll (seconds)").
				Value(&m.fb.unreadSecs).
				Validate(validateSeconds),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeView
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.save(m.applyForm())
	case huh.StateAborted:
		m.form = nil
		m.mode = ModeView
		return m, nil
	}
	return m, cmd
}

// applyForm returns the configuration with the form values applied.
func (m Model) applyForm() model.AppConfig {
	cfg := m.cfg
	cfg.Client.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	cfg.Client.Author = strings.TrimSpace(m.fb.author)
	cfg.Poll.CommentIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.fb.commentSecs))
	cfg.Poll.UnreadIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.fb.unreadSecs))
	return cfg
}

func (m Model) save(cfg model.AppConfig) tea.Cmd {
	path := m.path
	return func() tea.Msg {
		err := model.SaveConfig(path, &cfg)
		return configSavedInternalMsg{cfg: cfg, err: err}
	}
}

func (m Model) validate(baseURL string) tea.Cmd {
	check := m.check
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ValidateResultMsg{BaseURL: baseURL, Err: check(ctx, baseURL)}
	}
}

// View renders the settings view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var body string
	switch m.mode {
	case ModeForm:
		if m.form != nil {
			body = m.form.View()
		}
	case ModeValidating:
		body = fmt.Sprintf("%s Connecting to %s...", m.spinner.View(), m.cfg.Client.BaseURL)
	case ModeValidateResult:
		if m.validErr != nil {
			body = lipgloss.NewStyle().Foreground(theme.ColorRed).
				Render(fmt.Sprintf("✗ %s: %v", m.validURL, m.validErr))
		} else {
			body = lipgloss.NewStyle().Foreground(theme.ColorGreen).
				Render(fmt.Sprintf("✓ %s is reachable", m.validURL))
		}
		body += "\n\n" + theme.HelpStyle.Render("press any key")
	default:
		body = m.renderOverview()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), body)
	return theme.DetailPanelStyle.Width(m.width - 4).Render(content)
}

func (m Model) renderOverview() string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(18)
	author := m.cfg.Client.Author
	if author == "" {
		author = model.DefaultCommentAuthor
	}
	rows := []string{
		labelStyle.Render("Server URL") + m.cfg.Client.BaseURL,
		labelStyle.Render("Comment author") + author,
		labelStyle.Render("Comment poll") + m.cfg.CommentInterval().String(),
		labelStyle.Render("Unread poll") + m.cfg.UnreadInterval().String(),
		labelStyle.Render("Storage") + m.cfg.Storage.Dir,
		"",
		theme.HelpStyle.Render("e edit · enter test connection · esc back"),
	}
	if m.statusMsg != "" {
		rows = append(rows, "", m.statusMsg)
	}
	return strings.Join(rows, "\n")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-8, 40), 100)
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}

func validateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a whole number of seconds")
	}
	return nil
}
