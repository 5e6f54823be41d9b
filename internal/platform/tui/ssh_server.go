package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/editor"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// CatalogSource returns the current game catalog.
type CatalogSource interface {
	Current() catalog.Catalog
}

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.gamegen/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// TickMs is the simulation step of every preview.
	TickMs int
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		TickMs:      core.DefaultTickMs,
	}
}

// SSHServer serves game previews over SSH. Every connection gets its own
// menu, game instances and editor sessions.
type SSHServer struct {
	config  SSHServerConfig
	server  *ssh.Server
	catalog CatalogSource
	scores  ScoreSaver
	logger  *log.Logger
}

// NewSSHServer creates a new SSH server. scores may be nil; a nil logger
// discards output.
func NewSSHServer(cfg SSHServerConfig, cat CatalogSource, scores ScoreSaver, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = protocol.Discard()
	}
	if cfg.TickMs <= 0 {
		cfg.TickMs = core.DefaultTickMs
	}

	srv := &SSHServer{
		config:  cfg,
		catalog: cat,
		scores:  scores,
		logger:  logger.WithPrefix("preview-ssh"),
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tui: home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".gamegen", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
		TickMs:  s.config.TickMs,
		Seed:    time.Now().UnixNano(),
	}

	model := NewSessionModel(s.catalog.Current(), s.scores, cfg, s.logger.With("user", sshSession.User()))
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is done, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionModel manages one connection: menu -> preview -> menu.
type SessionModel struct {
	catalog  catalog.Catalog
	scores   ScoreSaver
	config   core.RuntimeConfig
	logger   *log.Logger
	menu     MenuModel
	preview  *Model
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(cat catalog.Catalog, scores ScoreSaver, cfg core.RuntimeConfig, logger *log.Logger) SessionModel {
	if logger == nil {
		logger = protocol.Discard()
	}
	return SessionModel{
		catalog: cat,
		scores:  scores,
		config:  cfg,
		logger:  logger,
		menu:    NewMenuModel(cat, cfg),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	if m.preview != nil {
		return m.updatePreview(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	selected := m.menu.Selected()
	if selected == nil {
		return m, cmd
	}

	preview, err := m.startPreview(selected.GameID)
	if err != nil {
		m.logger.Error("preview not started", "game", selected.GameID, "error", err)
		m.menu = NewMenuModel(m.catalog, m.config)
		return m, nil
	}
	m.preview = &preview
	return m, m.preview.Init()
}

func (m SessionModel) startPreview(gameID string) (Model, error) {
	cfg, err := m.catalog.MustGame(gameID)
	if err != nil {
		return Model{}, err
	}
	game, err := registry.Create(gameID)
	if err != nil {
		return Model{}, err
	}
	session := editor.NewSession(cfg, m.logger)
	m.logger.Info("preview started", "game", gameID)
	return NewModel(game, session, m.scores, m.config), nil
}

// updatePreview handles updates when a game is running.
func (m SessionModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.preview.Update(msg)
	if preview, ok := newModel.(Model); ok {
		m.preview = &preview
	}

	if m.preview.IsQuitting() {
		m.preview.session.Detach()
		m.quitting = true
		return m, tea.Quit
	}

	if m.preview.BackToMenu() {
		m.preview.session.Detach()
		m.preview = nil
		m.menu = NewMenuModel(m.catalog, m.config)
		return m, m.menu.Init()
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	if m.preview != nil {
		return m.preview.View()
	}
	return m.menu.View()
}
