package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/credential"
	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary        ConfigMode = iota // Read-only overview
	ModeForm                             // Backend, push and preference form
	ModeToken                            // API token form
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
	ModeConfirmClear                     // Confirm token removal
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the configuration that was written to disk.
// Connection settings take effect on the next start.
type ConfigSavedMsg struct {
	Config *model.AppConfig
}

// ValidateResultMsg carries the result of a connection validation attempt.
type ValidateResultMsg struct {
	Status string
	Err    error
}

type configSavedInternalMsg struct {
	cfg *model.AppConfig
	err error
}

type tokenSavedInternalMsg struct {
	cleared bool
	err     error
}

// Validator checks that a backend is reachable with the given token.
type Validator func(ctx context.Context, baseURL, token string) (string, error)

// Credentials persists the backend token.
type Credentials interface {
	Lookup(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type keyringCredentials struct{}

func (keyringCredentials) Lookup(key string) (string, error) { return credential.Lookup(key) }
func (keyringCredentials) Set(key, value string) error       { return credential.Set(key, value) }
func (keyringCredentials) Delete(key string) error           { return credential.Delete(key) }

// KeyringCredentials stores the token in the system keyring.
func KeyringCredentials() Credentials {
	return keyringCredentials{}
}

type formFields struct {
	baseURL   string
	wsURL     string
	timeout   string
	poll      string
	push      bool
	reconnect string
	prefs     []string
	token     string
	confirm   bool
}

// Model is the Bubble Tea model for the settings UI.
type Model struct {
	mode  ConfigMode
	cfg   model.AppConfig
	path  string
	creds Credentials
	check Validator

	form         *huh.Form
	tokenForm    *huh.Form
	confirmClear *huh.Form

	// huh binds to these; shared across model copies
	fields *formFields

	hasToken    bool
	validResult string
	validError  error
	spinner     spinner.Model

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view over cfg, saving to path.
func New(cfg *model.AppConfig, path string, creds Credentials, check Validator, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:    ModeSummary,
		cfg:     *cfg,
		path:    path,
		creds:   creds,
		check:   check,
		keys:    k,
		spinner: sp,
		fields:  &formFields{},
		width:   width,
		height:  height,
	}
	if tok, err := creds.Lookup(credential.BackendTokenKey); err == nil && tok != "" {
		m.hasToken = true
	}
	return m
}

// Init is a no-op; the configuration is already loaded.
func (m Model) Init() tea.Cmd {
	return nil
}

// Mode returns the current view state.
func (m Model) Mode() ConfigMode {
	return m.mode
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case configSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			m.mode = ModeSummary
			return m, nil
		}
		m.cfg = *msg.cfg
		m.statusMsg = "Settings saved. Connection changes apply on restart."
		m.mode = ModeSummary
		saved := msg.cfg
		return m, func() tea.Msg { return ConfigSavedMsg{Config: saved} }

	case tokenSavedInternalMsg:
		m.fields.token = ""
		m.mode = ModeSummary
		switch {
		case msg.err != nil:
			m.statusMsg = fmt.Sprintf("Error storing token: %v", msg.err)
		case msg.cleared:
			m.hasToken = false
			m.statusMsg = "API token removed"
		default:
			m.hasToken = true
			m.statusMsg = "API token stored in keyring"
		}
		return m, nil

	case ValidateResultMsg:
		m.validResult = msg.Status
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSummary:
		return m.handleSummaryKeys(msg)
	case ModeValidating:
		if msg.String() == "esc" {
			m.mode = ModeSummary
		}
		return m, nil
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	default:
		return m.updateActiveForm(msg)
	}
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.statusMsg = ""

	switch msg.String() {
	case "esc", "q":
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case "e", "enter":
		m.loadFormFields()
		m.form = m.buildSettingsForm()
		m.mode = ModeForm
		return m, m.form.Init()

	case "t":
		m.fields.token = ""
		m.tokenForm = m.buildTokenForm()
		m.mode = ModeToken
		return m, m.tokenForm.Init()

	case "c":
		if !m.hasToken {
			m.statusMsg = "No API token stored"
			return m, nil
		}
		m.fields.confirm = false
		m.confirmClear = m.buildClearConfirmForm()
		m.mode = ModeConfirmClear
		return m, m.confirmClear.Init()

	case "v":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	}

	return m, nil
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	case "enter", "esc":
		m.mode = ModeSummary
		m.validError = nil
		m.validResult = ""
	}
	return m, nil
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	var (
		f    *huh.Form
		cmd  tea.Cmd
		done func(Model) (Model, tea.Cmd)
	)
	switch m.mode {
	case ModeForm:
		m.form, cmd = advance(m.form, msg)
		f, done = m.form, Model.saveSettings
	case ModeToken:
		m.tokenForm, cmd = advance(m.tokenForm, msg)
		f, done = m.tokenForm, Model.saveToken
	case ModeConfirmClear:
		m.confirmClear, cmd = advance(m.confirmClear, msg)
		f, done = m.confirmClear, Model.clearToken
	default:
		return m, nil
	}
	if f == nil {
		return m, nil
	}

	switch f.State {
	case huh.StateCompleted:
		return done(m)
	case huh.StateAborted:
		m.mode = ModeSummary
		return m, nil
	}
	return m, cmd
}

func advance(f *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd) {
	if f == nil {
		return nil, nil
	}
	mdl, cmd := f.Update(msg)
	if next, ok := mdl.(*huh.Form); ok {
		f = next
	}
	return f, cmd
}

// --- Settings form ---

const (
	prefEmail    = "email"
	prefPush     = "push"
	prefSMS      = "sms"
	prefLowStock = "low_stock"
	prefExpiry   = "expiry"
)

func (m *Model) loadFormFields() {
	m.fields.baseURL = m.cfg.Backend.BaseURL
	m.fields.wsURL = m.cfg.Backend.WSURL
	m.fields.timeout = strconv.Itoa(m.cfg.Backend.TimeoutSec)
	m.fields.poll = strconv.Itoa(m.cfg.Backend.PollIntervalSec)
	m.fields.push = m.cfg.Push.Enabled
	m.fields.reconnect = strconv.Itoa(m.cfg.Push.ReconnectDelayMS)

	p := m.cfg.Preferences
	m.fields.prefs = nil
	for _, opt := range []struct {
		on  bool
		key string
	}{
		{p.Email, prefEmail},
		{p.Push, prefPush},
		{p.SMS, prefSMS},
		{p.LowStock, prefLowStock},
		{p.Expiry, prefExpiry},
	} {
		if opt.on {
			m.fields.prefs = append(m.fields.prefs, opt.key)
		}
	}
}

func (m *Model) buildSettingsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Inventory REST API root").
				Placeholder("http://localhost:8000").
				Value(&m.fields.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Push URL").
				Description("WebSocket endpoint for live notifications").
				Placeholder("ws://localhost:8000/ws/notifications").
				Value(&m.fields.wsURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.fields.timeout).
				Validate(validatePositive("Timeout")),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Description("Fetch alerts while push is down; 0 disables").
				Value(&m.fields.poll).
				Validate(validateNonNegative("Poll interval")),
		).Title("Backend"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable push channel").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fields.push),
			huh.NewInput().
				Title("Reconnect delay (ms)").
				Value(&m.fields.reconnect).
				Validate(validatePositive("Reconnect delay")),
			huh.NewMultiSelect[string]().
				Title("Notification preferences").
				Options(
					huh.NewOption("Email notifications", prefEmail),
					huh.NewOption("Push notifications", prefPush),
					huh.NewOption("SMS notifications", prefSMS),
					huh.NewOption("Low stock alerts", prefLowStock),
					huh.NewOption("Expiry alerts", prefExpiry),
				).
				Value(&m.fields.prefs),
		).Title("Notifications"),
	).WithWidth(m.formWidth())
}

// applyForm folds the form values into a copy of the current config.
func (m Model) applyForm() *model.AppConfig {
	cfg := m.cfg
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(m.fields.baseURL), "/")
	cfg.Backend.WSURL = strings.TrimSpace(m.fields.wsURL)
	cfg.Backend.TimeoutSec, _ = strconv.Atoi(strings.TrimSpace(m.fields.timeout))
	cfg.Backend.PollIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.fields.poll))
	cfg.Push.Enabled = m.fields.push
	cfg.Push.ReconnectDelayMS, _ = strconv.Atoi(strings.TrimSpace(m.fields.reconnect))

	has := func(k string) bool {
		for _, p := range m.fields.prefs {
			if p == k {
				return true
			}
		}
		return false
	}
	cfg.Preferences = model.Preferences{
		Email:    has(prefEmail),
		Push:     has(prefPush),
		SMS:      has(prefSMS),
		LowStock: has(prefLowStock),
		Expiry:   has(prefExpiry),
	}
	return &cfg
}

func (m Model) saveSettings() (Model, tea.Cmd) {
	cfg := m.applyForm()
	path := m.path
	return m, func() tea.Msg {
		return configSavedInternalMsg{cfg: cfg, err: model.SaveConfig(path, cfg)}
	}
}

// --- Token form ---

func (m *Model) buildTokenForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Token").
				Description("Sent as a Bearer token to the inventory backend").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.token).
				Validate(validateRequired("Token")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) saveToken() (Model, tea.Cmd) {
	creds, token := m.creds, strings.TrimSpace(m.fields.token)
	return m, func() tea.Msg {
		return tokenSavedInternalMsg{err: creds.Set(credential.BackendTokenKey, token)}
	}
}

func (m *Model) buildClearConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Remove the stored API token?").
				Affirmative("Remove").
				Negative("Cancel").
				Value(&m.fields.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) clearToken() (Model, tea.Cmd) {
	if !m.fields.confirm {
		m.mode = ModeSummary
		return m, nil
	}
	creds := m.creds
	return m, func() tea.Msg {
		return tokenSavedInternalMsg{cleared: true, err: creds.Delete(credential.BackendTokenKey)}
	}
}

// validate tests the configured backend with the stored token.
func (m Model) validate() tea.Cmd {
	check, creds, baseURL := m.check, m.creds, m.cfg.Backend.BaseURL
	return func() tea.Msg {
		if check == nil {
			return ValidateResultMsg{Err: fmt.Errorf("validation is not available")}
		}
		token, err := creds.Lookup(credential.BackendTokenKey)
		if err != nil {
			return ValidateResultMsg{Err: fmt.Errorf("reading token: %w", err)}
		}
		status, err := check(context.Background(), baseURL, token)
		return ValidateResultMsg{Status: status, Err: err}
	}
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeSummary:
		return m.viewSummary()
	case ModeForm:
		return m.viewForm(m.form)
	case ModeToken:
		return m.viewForm(m.tokenForm)
	case ModeConfirmClear:
		return m.viewForm(m.confirmClear)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return ""
	}
}

func (m Model) viewSummary() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(22)

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	onOff := func(v bool) string {
		if v {
			return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("on")
		}
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Render("off")
	}
	token := "not set"
	if m.hasToken {
		token = "stored in keyring"
	}

	p := m.cfg.Preferences
	rows := [][2]string{
		{"Backend URL", m.cfg.Backend.BaseURL},
		{"Push URL", m.cfg.Backend.WSURL},
		{"Request timeout", fmt.Sprintf("%ds", m.cfg.Backend.TimeoutSec)},
		{"Poll interval", fmt.Sprintf("%ds", m.cfg.Backend.PollIntervalSec)},
		{"Push channel", onOff(m.cfg.Push.Enabled)},
		{"Reconnect delay", fmt.Sprintf("%dms", m.cfg.Push.ReconnectDelayMS)},
		{"API token", token},
		{"Email", onOff(p.Email)},
		{"Push", onOff(p.Push)},
		{"SMS", onOff(p.SMS)},
		{"Low stock alerts", onOff(p.LowStock)},
		{"Expiry alerts", onOff(p.Expiry)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"e edit | t set token | c clear token | v test connection | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		content = okStyle.Render("Connection successful") + "\n\n" +
			m.validResult + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("enter/esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:8000)")
	}
	return nil
}

func validatePositive(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateNonNegative(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be zero or a positive number", fieldName)
		}
		return nil
	}
}
