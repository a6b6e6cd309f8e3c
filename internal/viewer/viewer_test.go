package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/televizor/billing/internal/domain"
)

func newTestManager(password string) *Manager {
	return NewManager("pgweb", "127.0.0.1:0", "postgres://localhost/test", password, time.Second)
}

func TestPasswordGate(t *testing.T) {
	m := newTestManager("hunter2")

	assert.ErrorIs(t, m.Start("wrong"), domain.ErrBadPassword)
	assert.ErrorIs(t, m.Stop("wrong"), domain.ErrBadPassword)
	_, err := m.Status("wrong")
	assert.ErrorIs(t, err, domain.ErrBadPassword)
}

func TestEmptyPasswordDisablesViewer(t *testing.T) {
	m := newTestManager("")

	assert.ErrorIs(t, m.Start(""), domain.ErrBadPassword)
	_, err := m.Status("")
	assert.ErrorIs(t, err, domain.ErrBadPassword)
}

func TestStopWhenNotRunning(t *testing.T) {
	m := newTestManager("hunter2")

	assert.ErrorIs(t, m.Stop("hunter2"), domain.ErrViewerNotRunning)
}

func TestStatusStoppedInitially(t *testing.T) {
	m := newTestManager("hunter2")

	state, err := m.Status("hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateStopped, state)
}

func TestStartUnknownCommand(t *testing.T) {
	m := NewManager("no-such-binary-on-path", "127.0.0.1:0", "postgres://localhost/test", "hunter2", time.Second)

	err := m.Start("hunter2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBadPassword)

	state, err := m.Status("hunter2")
	require.NoError(t, err)
	assert.Equal(t, StateStopped, state)
}
