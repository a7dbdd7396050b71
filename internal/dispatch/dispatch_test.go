package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/hoststate"
)

type published struct {
	topic    string
	cmd      Command
	retained bool
}

type mockPublisher struct {
	sent []published
	err  error
}

func (m *mockPublisher) PublishJSON(topic string, v any, retained bool) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, published{topic: topic, cmd: v.(Command), retained: retained})
	return nil
}

type outcome struct {
	kind string
	err  error
}

type mockObserver struct{ outcomes []outcome }

func (m *mockObserver) Dispatched(kind string, err error) {
	m.outcomes = append(m.outcomes, outcome{kind, err})
}

var (
	fixedNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	selectPanel = hoststate.PanelHandle{Name: hoststate.PanelSelectString, Instance: 1}
)

func TestSelect_PublishesCommand(t *testing.T) {
	pub := &mockPublisher{}
	obs := &mockObserver{}
	d := NewMQTTDispatcher(pub, WithObserver(obs), WithClock(func() time.Time { return fixedNow }))

	require.NoError(t, d.Select(selectPanel, 1))

	require.Len(t, pub.sent, 1)
	sent := pub.sent[0]
	assert.Equal(t, "tickpilot/host/command/select", sent.topic)
	assert.False(t, sent.retained)
	assert.Equal(t, "select", sent.cmd.Kind)
	assert.Equal(t, hoststate.PanelSelectString, sent.cmd.Panel)
	assert.Equal(t, 1, sent.cmd.Instance)
	require.NotNil(t, sent.cmd.Index)
	assert.Equal(t, 1, *sent.cmd.Index)
	assert.Nil(t, sent.cmd.Accept)
	assert.Equal(t, fixedNow, sent.cmd.IssuedAt)
	_, err := uuid.Parse(sent.cmd.ID)
	assert.NoError(t, err)

	assert.Equal(t, []outcome{{"select", nil}}, obs.outcomes)
}

func TestConfirm_PublishesCommand(t *testing.T) {
	pub := &mockPublisher{}
	d := NewMQTTDispatcher(pub)

	h := hoststate.PanelHandle{Name: hoststate.PanelSelectYesno, Instance: 2}
	require.NoError(t, d.Confirm(h, true))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "tickpilot/host/command/confirm", pub.sent[0].topic)
	require.NotNil(t, pub.sent[0].cmd.Accept)
	assert.True(t, *pub.sent[0].cmd.Accept)
	assert.Equal(t, 2, pub.sent[0].cmd.Instance)
}

func TestSelect_CommandIDsAreUnique(t *testing.T) {
	pub := &mockPublisher{}
	d := NewMQTTDispatcher(pub)

	require.NoError(t, d.Select(selectPanel, 0))
	require.NoError(t, d.Select(selectPanel, 0))
	assert.NotEqual(t, pub.sent[0].cmd.ID, pub.sent[1].cmd.ID)
}

func TestSelect_Validation(t *testing.T) {
	pub := &mockPublisher{}
	obs := &mockObserver{}
	d := NewMQTTDispatcher(pub, WithObserver(obs))

	assert.ErrorIs(t, d.Select(selectPanel, -1), ErrInvalidIndex)
	assert.ErrorIs(t, d.Select(hoststate.PanelHandle{Instance: 1}, 0), ErrInvalidHandle)
	assert.ErrorIs(t, d.Confirm(hoststate.PanelHandle{Name: "SelectYesno"}, true), ErrInvalidHandle)

	assert.Empty(t, pub.sent)
	require.Len(t, obs.outcomes, 3)
	for _, o := range obs.outcomes {
		assert.Error(t, o.err)
	}
}

func TestSelect_SubmitFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("not connected")}
	d := NewMQTTDispatcher(pub)

	err := d.Select(selectPanel, 0)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.Contains(t, err.Error(), "not connected")
}

type infoRecorder struct{ msgs []string }

func (r *infoRecorder) Info(msg string, _ ...any) { r.msgs = append(r.msgs, msg) }

func TestDryRun(t *testing.T) {
	rec := &infoRecorder{}
	d := DryRun{Logger: rec}

	require.NoError(t, d.Select(selectPanel, 3))
	require.NoError(t, d.Confirm(hoststate.PanelHandle{Name: "SelectYesno", Instance: 1}, false))
	assert.ErrorIs(t, d.Select(hoststate.PanelHandle{}, 0), ErrInvalidHandle)

	assert.Equal(t, []string{"dry-run select", "dry-run confirm"}, rec.msgs)
}
