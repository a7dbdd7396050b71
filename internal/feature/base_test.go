package feature_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/feature/featuretest"
	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/taskmanager"
)

var testInfo = feature.Info{Key: "test", Name: "Test Feature", Description: "for tests", Type: feature.TypeOther}

// ─── Lifecycle ──────────────────────────────────────────────────────

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", feature.StateUninitialized.String())
	assert.Equal(t, "disabled", feature.StateDisabled.String())
	assert.Equal(t, "enabled", feature.StateEnabled.String())
	assert.Equal(t, "disposed", feature.StateDisposed.String())
	assert.Equal(t, "state(9)", feature.State(9).String())
}

func TestSetupThenDispose_WithoutEnable(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)

	require.NoError(t, b.Setup())
	assert.True(t, b.Ready())

	require.NotPanics(t, b.Dispose)
	assert.False(t, b.Enabled())
	assert.False(t, b.Ready())
	assert.Equal(t, feature.StateDisposed, b.State())
}

func TestDispose_BeforeSetup(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)

	require.NotPanics(t, b.Dispose)
	assert.False(t, b.Ready())
	assert.ErrorIs(t, b.Setup(), feature.ErrDisposed)
}

func TestSetup_SilentTimeoutAndReady(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	assert.False(t, b.TaskManager().TimeoutSilently())

	require.NoError(t, b.Setup())
	assert.True(t, b.TaskManager().TimeoutSilently())
	assert.Equal(t, feature.StateDisabled, b.State())

	// A second Setup is harmless.
	require.NoError(t, b.Setup())
	assert.Equal(t, feature.StateDisabled, b.State())
}

func TestEnable_BeforeSetup(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)

	assert.ErrorIs(t, b.Enable(), feature.ErrNotReady)
	assert.False(t, h.Framework.Subscribed(testInfo.Key))
}

func TestEnableDisable_Idempotent(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())

	require.NoError(t, b.Enable())
	require.NoError(t, b.Enable())
	assert.True(t, b.Enabled())
	assert.Equal(t, []string{testInfo.Key}, h.Framework.Subscribers())

	b.Disable()
	b.Disable()
	assert.False(t, b.Enabled())
	assert.Empty(t, h.Framework.Subscribers())

	assert.Equal(t, []string{feature.ChannelEnabled, feature.ChannelDisabled}, h.Hub.Channels())
}

func TestDisable_AbandonsSteps(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	ran := false
	b.TaskManager().Enqueue(
		taskmanager.Wait("never", func() bool { return false }, taskmanager.NoTimeout),
		taskmanager.Do("after", func() error { ran = true; return nil }),
	)
	h.Tick()
	assert.Equal(t, 2, b.Status().Pending)

	b.Disable()
	assert.False(t, b.TaskManager().IsBusy())

	require.NoError(t, b.Enable())
	h.Tick()
	assert.False(t, ran)
}

func TestDispose_DisablesEnabledFeature(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	b.Dispose()
	assert.False(t, b.Enabled())
	assert.False(t, h.Framework.Subscribed(testInfo.Key))
	assert.ErrorIs(t, b.Enable(), feature.ErrNotReady)
}

// ─── Identity ───────────────────────────────────────────────────────

func TestJobChanged_FiresOncePerTransition(t *testing.T) {
	h := featuretest.New(t)
	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(19)}})

	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	var got []uint32
	b.OnJobChanged(func(j uint32) { got = append(got, j) })

	h.Tick()
	assert.Empty(t, got, "same job as at setup")

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(24)}})
	h.Tick()
	h.Tick()
	assert.Equal(t, []uint32{24}, got)

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: nil}})
	h.Tick()
	assert.Equal(t, []uint32{24}, got, "unknown job never notifies")

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(24)}})
	h.Tick()
	assert.Equal(t, []uint32{24}, got, "unknown then same job is not a change")

	id, ok := b.JobID()
	assert.True(t, ok)
	assert.Equal(t, uint32(24), id)
	require.NotNil(t, b.Status().JobID)
	assert.Equal(t, uint32(24), *b.Status().JobID)
}

func TestJobChanged_UnknownAtSetup(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	calls := 0
	b.OnJobChanged(func(uint32) { calls++ })

	h.Tick()
	assert.Equal(t, 0, calls)

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(5)}})
	h.Tick()
	assert.Equal(t, 1, calls)
	assert.Contains(t, h.Hub.Channels(), feature.ChannelJobChanged)
}

func TestOnJobChanged_Cancel(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)

	var a, c int
	cancelA := b.OnJobChanged(func(uint32) { a++ })
	b.OnJobChanged(func(uint32) { c++ })

	b.ObserveJob(1, true)
	cancelA()
	cancelA()
	b.ObserveJob(2, true)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, c)
}

// ─── Tick hook ──────────────────────────────────────────────────────

func TestTick_OrderIsIdentityLogicTasks(t *testing.T) {
	h := featuretest.New(t)
	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(1)}})

	var order []string
	var b *feature.Base
	b = feature.NewBase(testInfo, h.Deps(), func() {
		order = append(order, "logic")
		if !b.TaskManager().IsBusy() {
			b.TaskManager().Enqueue(taskmanager.Do("step", func() error {
				order = append(order, "step")
				return nil
			}))
		}
	})
	b.OnJobChanged(func(uint32) { order = append(order, "job") })
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(2)}})
	h.Tick()

	assert.Equal(t, []string{"job", "logic", "step"}, order)
}

func TestTick_PanicBecomesFault(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), func() { panic("index out of range") })
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	ran := 0
	b.TaskManager().Enqueue(taskmanager.Do("still-runs", func() error { ran++; return nil }))

	require.NotPanics(t, h.Tick)
	assert.True(t, b.Enabled())
	assert.True(t, h.Framework.Subscribed(testInfo.Key))
	assert.Equal(t, "index out of range", b.Fault())
	assert.Equal(t, "index out of range", b.Status().Fault)
	assert.Equal(t, 1, ran)
	assert.Contains(t, h.Hub.Channels(), feature.ChannelFault)
}

func TestTick_ListenerPanicBecomesFault(t *testing.T) {
	h := featuretest.New(t)
	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(1)}})

	b := feature.NewBase(testInfo, h.Deps(), nil)
	b.OnJobChanged(func(uint32) { panic("listener broke") })
	var second []uint32
	b.OnJobChanged(func(j uint32) { second = append(second, j) })
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	runs := 0
	b.TaskManager().Enqueue(
		taskmanager.Do("first", func() error { runs++; return nil }),
		taskmanager.Do("second", func() error { runs++; return nil }),
	)

	h.Apply(t, hoststate.Snapshot{Player: hoststate.Player{JobID: featuretest.Job(2)}})
	require.NotPanics(t, h.Tick)
	h.Tick()

	assert.Equal(t, "listener broke", b.Fault())
	assert.Equal(t, []uint32{2}, second)
	assert.Equal(t, 2, runs)
	assert.True(t, b.Enabled())

	channels := h.Hub.Channels()
	assert.Contains(t, channels, feature.ChannelFault)
	assert.Contains(t, channels, feature.ChannelJobChanged)
}

func TestStepFailure_IsPublished(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	b.TaskManager().Enqueue(taskmanager.Do("broken", func() error { return errors.New("nope") }))
	h.Tick()

	require.NotEmpty(t, h.Hub.Events)
	last := h.Hub.Events[len(h.Hub.Events)-1]
	assert.Equal(t, feature.ChannelStepFailed, last.Channel)
	assert.Equal(t, "broken", last.Event.Step)
	assert.Equal(t, "nope", last.Event.Error)
	assert.Equal(t, testInfo.Key, last.Event.Key)
}

// Panel becomes ready on tick 3; the wait gives up after 2 evaluations,
// and the select queued behind it is dropped with it. Only a select
// enqueued afterwards runs.
func TestTickTimeoutScenario(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)
	require.NoError(t, b.Setup())
	require.NoError(t, b.Enable())

	confirm := hoststate.Entry{Text: "Confirm", Enabled: true}
	panelReady := func() bool { return b.Reader().IsPanelReady(hoststate.PanelSelectString, 1) }
	selectConfirm := func() bool { return b.TrySelectEntry("Confirm", func() bool { return true }) }

	b.TaskManager().Enqueue(
		taskmanager.WaitTicks("wait-for-panel-ready", panelReady, 2),
		taskmanager.Until("select-entry", selectConfirm, taskmanager.NoTimeout),
	)

	h.Apply(t, hoststate.Snapshot{Panels: []hoststate.Panel{featuretest.SelectString(false, confirm)}})
	h.Tick()
	h.Tick()
	assert.False(t, b.TaskManager().IsBusy(), "wait timed out and the rest of the queue was dropped")

	h.Apply(t, hoststate.Snapshot{Panels: []hoststate.Panel{featuretest.SelectString(true, confirm)}})
	h.Tick()
	assert.Empty(t, h.Dispatcher.Calls)

	b.TaskManager().Enqueue(taskmanager.Until("select-entry", selectConfirm, taskmanager.NoTimeout))
	h.Tick()
	require.Len(t, h.Dispatcher.Calls, 1)
	assert.Equal(t, 0, h.Dispatcher.Calls[0].Index)
}

// ─── Messages and settings ──────────────────────────────────────────

func TestPrintModuleMessage(t *testing.T) {
	h := featuretest.New(t)
	b := feature.NewBase(testInfo, h.Deps(), nil)

	b.PrintModuleMessage("hello")
	b.PrintTaggedMessage("warn", "careful")

	require.Len(t, h.Messages, 2)
	assert.Equal(t, "[TickPilot] [Test Feature] hello", h.Messages[0].String())
	assert.Equal(t, "warn", h.Messages[1].Tag)
}

type testSettings struct {
	Cooldown int  `json:"cooldown"`
	Loud     bool `json:"loud"`
}

func TestLoadConfig(t *testing.T) {
	def := testSettings{Cooldown: 300}

	t.Run("missing uses defaults", func(t *testing.T) {
		h := featuretest.New(t)
		b := feature.NewBase(testInfo, h.Deps(), nil)
		assert.Equal(t, def, feature.LoadConfig(b, def))
	})

	t.Run("read error uses defaults", func(t *testing.T) {
		h := featuretest.New(t)
		h.Store.LoadErr = errors.New("disk on fire")
		b := feature.NewBase(testInfo, h.Deps(), nil)
		assert.Equal(t, def, feature.LoadConfig(b, def))
	})

	t.Run("corrupt document uses defaults", func(t *testing.T) {
		h := featuretest.New(t)
		h.Store.Docs[testInfo.Key] = []byte(`{"cooldown": "lots"`)
		b := feature.NewBase(testInfo, h.Deps(), nil)
		assert.Equal(t, def, feature.LoadConfig(b, def))
	})

	t.Run("saved settings round trip", func(t *testing.T) {
		h := featuretest.New(t)
		b := feature.NewBase(testInfo, h.Deps(), nil)
		require.NoError(t, b.SaveConfig(testSettings{Cooldown: 900, Loud: true}))
		assert.Equal(t, testSettings{Cooldown: 900, Loud: true}, feature.LoadConfig(b, def))
	})

	t.Run("no store", func(t *testing.T) {
		h := featuretest.New(t)
		deps := h.Deps()
		deps.Store = nil
		b := feature.NewBase(testInfo, deps, nil)
		require.NoError(t, b.SaveConfig(testSettings{}))
		assert.Equal(t, def, feature.LoadConfig(b, def))
	})
}

func TestSaveConfig_Error(t *testing.T) {
	h := featuretest.New(t)
	h.Store.SaveErr = errors.New("read-only")
	b := feature.NewBase(testInfo, h.Deps(), nil)

	assert.Error(t, b.SaveConfig(testSettings{}))
}
