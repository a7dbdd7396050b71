package hoststate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	noopLogger
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }

func jobID(v uint32) *uint32 { return &v }

func selectStringSnapshot(ready bool, entries ...Entry) Snapshot {
	return Snapshot{
		Seq: 1,
		Panels: []Panel{{
			Name:    PanelSelectString,
			Ready:   ready,
			Visible: true,
			Entries: entries,
		}},
	}
}

// ─── Empty reader ───────────────────────────────────────────────────

func TestSnapshotReader_NoSnapshot(t *testing.T) {
	r := NewSnapshotReader()

	_, ok := r.FindPanel(PanelSelectString, 1)
	assert.False(t, ok)
	assert.False(t, r.IsPanelReady(PanelSelectString, 1))
	assert.Nil(t, r.ListSelectableEntries(PanelHandle{Name: PanelSelectString, Instance: 1}))
	assert.False(t, r.IsLoadingScreenActive())
	assert.False(t, r.IsRestrictedState())
	assert.Zero(t, r.FreeInventorySlots())
	_, known := r.CurrentJob()
	assert.False(t, known)
}

// ─── Panels ─────────────────────────────────────────────────────────

func TestSnapshotReader_ZeroInstanceReadsAsOne(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(selectStringSnapshot(true)))

	h, ok := r.FindPanel(PanelSelectString, 1)
	require.True(t, ok)
	assert.Equal(t, PanelHandle{Name: PanelSelectString, Instance: 1}, h)
	assert.True(t, r.IsPanelReady(PanelSelectString, 1))
	assert.False(t, r.IsPanelReady(PanelSelectString, 2))
}

func TestSnapshotReader_InstanceOutOfRange(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(selectStringSnapshot(true)))

	assert.False(t, r.IsPanelReady(PanelSelectString, 0))
	assert.False(t, r.IsPanelReady(PanelSelectString, -1))
	assert.False(t, r.IsPanelReady(PanelSelectString, MaxPanelInstance+1))
}

func TestSnapshotReader_EntriesRequireReadiness(t *testing.T) {
	r := NewSnapshotReader()
	h := PanelHandle{Name: PanelSelectString, Instance: 1}

	require.NoError(t, r.Apply(selectStringSnapshot(false, Entry{Text: "Yes", Enabled: true})))
	assert.Nil(t, r.ListSelectableEntries(h))
	assert.False(t, r.IsEntryEnabled(h, 0))
	_, ready := r.ReadEntries(h)
	assert.False(t, ready)

	require.NoError(t, r.Apply(selectStringSnapshot(true, Entry{Text: "No", Enabled: true}, Entry{Text: "Yes", Enabled: false})))
	assert.Equal(t, []Entry{{Text: "No", Enabled: true}, {Text: "Yes", Enabled: false}}, r.ListSelectableEntries(h))
	entries, ready := r.ReadEntries(h)
	assert.True(t, ready)
	assert.Equal(t, []Entry{{Text: "No", Enabled: true}, {Text: "Yes", Enabled: false}}, entries)
	assert.True(t, r.IsEntryEnabled(h, 0))
	assert.False(t, r.IsEntryEnabled(h, 1))
	assert.False(t, r.IsEntryEnabled(h, 2))
	assert.False(t, r.IsEntryEnabled(h, -1))
}

func TestSnapshotReader_EntriesAreCopied(t *testing.T) {
	r := NewSnapshotReader()
	h := PanelHandle{Name: PanelSelectString, Instance: 1}
	require.NoError(t, r.Apply(selectStringSnapshot(true, Entry{Text: "Yes", Enabled: true})))

	entries := r.ListSelectableEntries(h)
	entries[0].Text = "mutated"
	assert.Equal(t, "Yes", r.ListSelectableEntries(h)[0].Text)
}

func TestSnapshotReader_ReadText(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(Snapshot{Panels: []Panel{
		{Name: PanelSelectYesno, Instance: 1, Ready: true, Nodes: map[string]Node{YesnoPromptNode: {Text: "Retire?", Visible: true}}},
		{Name: PanelSelectYesno, Instance: 2, Ready: false, Nodes: map[string]Node{YesnoPromptNode: {Text: "Hidden"}}},
	}}))

	text, ok := r.ReadText(PanelHandle{Name: PanelSelectYesno, Instance: 1}, YesnoPromptNode)
	assert.True(t, ok)
	assert.Equal(t, "Retire?", text)

	_, ok = r.ReadText(PanelHandle{Name: PanelSelectYesno, Instance: 1}, "99")
	assert.False(t, ok, "missing node")

	_, ok = r.ReadText(PanelHandle{Name: PanelSelectYesno, Instance: 2}, YesnoPromptNode)
	assert.False(t, ok, "panel not ready")

	assert.True(t, r.IsNodeVisible(PanelHandle{Name: PanelSelectYesno, Instance: 1}, YesnoPromptNode))
	assert.False(t, r.IsNodeVisible(PanelHandle{Name: PanelSelectYesno, Instance: 3}, YesnoPromptNode))
}

// ─── Global state ───────────────────────────────────────────────────

func TestSnapshotReader_LoadingScreen(t *testing.T) {
	r := NewSnapshotReader()

	require.NoError(t, r.Apply(Snapshot{Panels: []Panel{{Name: PanelFadeMiddle, Visible: false}}}))
	assert.False(t, r.IsLoadingScreenActive())

	require.NoError(t, r.Apply(Snapshot{Panels: []Panel{{Name: PanelFadeMiddle, Visible: true}}}))
	assert.True(t, r.IsLoadingScreenActive())

	require.NoError(t, r.Apply(Snapshot{Panels: []Panel{{Name: PanelFadeBack, Visible: true}}}))
	assert.True(t, r.IsLoadingScreenActive())
}

func TestSnapshotReader_PlayerState(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(Snapshot{Player: Player{
		JobID:        jobID(19),
		Moving:       true,
		TargetLocked: true,
		Conditions:   []string{"Mounted", ConditionBoundByDuty56},
		FreeSlots:    12,
	}}))

	job, ok := r.CurrentJob()
	assert.True(t, ok)
	assert.Equal(t, uint32(19), job)
	assert.True(t, r.IsMoving())
	assert.True(t, r.IsTargetLocked())
	assert.True(t, r.IsRestrictedState())
	assert.Equal(t, 12, r.FreeInventorySlots())

	require.NoError(t, r.Apply(Snapshot{Player: Player{Conditions: []string{"Mounted"}}}))
	assert.False(t, r.IsRestrictedState())
	_, ok = r.CurrentJob()
	assert.False(t, ok)
}

// ─── Apply ──────────────────────────────────────────────────────────

func TestSnapshotReader_StaleSnapshotIgnored(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(Snapshot{Seq: 5, Player: Player{FreeSlots: 5}}))

	err := r.Apply(Snapshot{Seq: 4, Player: Player{FreeSlots: 4}})
	assert.ErrorIs(t, err, ErrStaleSnapshot)
	assert.Equal(t, 5, r.FreeInventorySlots())

	// Seq zero bypasses ordering.
	require.NoError(t, r.Apply(Snapshot{Player: Player{FreeSlots: 0}}))
	assert.Zero(t, r.FreeInventorySlots())
}

func TestSnapshotReader_ApplyJSON(t *testing.T) {
	r := NewSnapshotReader()

	payload, err := json.Marshal(Snapshot{Seq: 1, Player: Player{JobID: jobID(5)}})
	require.NoError(t, err)
	require.NoError(t, r.ApplyJSON(payload))

	job, ok := r.CurrentJob()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), job)

	assert.ErrorIs(t, r.ApplyJSON([]byte("{not json")), ErrMalformedSnapshot)
}

func TestSnapshotReader_Reset(t *testing.T) {
	r := NewSnapshotReader()
	require.NoError(t, r.Apply(selectStringSnapshot(true)))
	r.Reset()

	_, ok := r.Current()
	assert.False(t, ok)
	assert.False(t, r.IsPanelReady(PanelSelectString, 1))
}

// ─── Fault boundary ─────────────────────────────────────────────────

func TestQuery_RecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	r := NewSnapshotReader(WithLogger(logger))
	require.NoError(t, r.Apply(Snapshot{}))

	got := query(r, "explode", 42, func(*view) int { panic("layout changed") })

	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"host state query fault"}, logger.warns)
}
