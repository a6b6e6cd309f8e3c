package viewer

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/televizor/billing/internal/domain"
)

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Manager runs the database viewer as a child process. It is isolated from
// the payment state machine; every operation is password gated.
type Manager struct {
	command     string
	listen      string
	databaseURL string
	password    string
	stopTimeout time.Duration

	mu   sync.Mutex
	cmd  *exec.Cmd
	wait chan error
}

func NewManager(command, listen, databaseURL, password string, stopTimeout time.Duration) *Manager {
	return &Manager{
		command:     command,
		listen:      listen,
		databaseURL: databaseURL,
		password:    password,
		stopTimeout: stopTimeout,
	}
}

func (m *Manager) checkPassword(password string) error {
	// An empty configured password disables the viewer entirely.
	if m.password == "" {
		return domain.ErrBadPassword
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) != 1 {
		return domain.ErrBadPassword
	}
	return nil
}

func (m *Manager) Start(password string) error {
	if err := m.checkPassword(password); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return domain.ErrViewerRunning
	}

	cmd := exec.Command(m.command, "--url", m.databaseURL, "--listen", m.listen)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}

	wait := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		wait <- err

		m.mu.Lock()
		if m.cmd == cmd {
			m.cmd = nil
			m.wait = nil
		}
		m.mu.Unlock()

		if err != nil {
			slog.Warn("viewer process exited", "error", err)
		}
	}()

	m.cmd = cmd
	m.wait = wait
	slog.Info("viewer started", "pid", cmd.Process.Pid, "listen", m.listen)
	return nil
}

func (m *Manager) Stop(password string) error {
	if err := m.checkPassword(password); err != nil {
		return err
	}

	m.mu.Lock()
	cmd := m.cmd
	wait := m.wait
	m.mu.Unlock()

	if cmd == nil {
		return domain.ErrViewerNotRunning
	}

	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stop viewer: %w", err)
	}

	select {
	case <-wait:
	case <-time.After(m.stopTimeout):
		return fmt.Errorf("stop viewer: process did not exit")
	}

	slog.Info("viewer stopped")
	return nil
}

func (m *Manager) Status(password string) (State, error) {
	if err := m.checkPassword(password); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd != nil {
		return StateRunning, nil
	}
	return StateStopped, nil
}
