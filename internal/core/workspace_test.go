package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyExtraction(format Format) *Extraction {
	ext := &Extraction{Format: format, RowsRead: 1}
	if format == FormatStaff {
		ext.Names = []string{"иванов иван"}
	} else {
		ext.Records = []NameRecord{{FullName: "иванов иван "}}
	}
	return ext
}

func TestWorkspaceStore_Lifecycle(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 0)

	ws, err := store.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.False(t, ws.Ready())
	assert.Equal(t, "Загрузите оба файла", ws.Message())

	require.NoError(t, store.Begin(ws.ID, FormatStaff, "staff.xlsx"))
	v, err := store.Get(ws.ID)
	require.NoError(t, err)
	assert.True(t, v.Staff.Processing)
	assert.True(t, v.Processing())
	assert.Equal(t, "Загружаем файл из 1С...", v.Message())

	require.NoError(t, store.Finish(ws.ID, FormatStaff, readyExtraction(FormatStaff), nil))
	v, _ = store.Get(ws.ID)
	assert.True(t, v.Staff.Ready)
	assert.Equal(t, "staff.xlsx", v.Staff.FileName)
	assert.Equal(t, 1, v.Staff.Extracted)
	assert.Equal(t, "Файл из 1С загружен. Ожидаем второй файл...", v.Message())

	require.NoError(t, store.Begin(ws.ID, FormatClients, "cards.xlsx"))
	require.NoError(t, store.Finish(ws.ID, FormatClients, readyExtraction(FormatClients), nil))
	v, _ = store.Get(ws.ID)
	assert.True(t, v.Ready())
	assert.Equal(t, "Файлы загружены. Готовы к сравнению...", v.Message())

	require.NoError(t, store.SetResult(ws.ID, MatchResult{Matched: []string{"иванов иван"}}))
	v, _ = store.Get(ws.ID)
	require.NotNil(t, v.Result)
	assert.Equal(t, "Сравнение завершено. Показать результаты!", v.Message())

	store.Delete(ws.ID)
	_, err = store.Get(ws.ID)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestWorkspaceStore_InputsGate(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 0)
	ws, _ := store.Create()

	_, _, err := store.Inputs(ws.ID)
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, store.Begin(ws.ID, FormatClients, "cards.csv"))
	require.NoError(t, store.Finish(ws.ID, FormatClients, readyExtraction(FormatClients), nil))
	_, _, err = store.Inputs(ws.ID)
	assert.ErrorIs(t, err, ErrNotReady)

	// Staff still processing.
	require.NoError(t, store.Begin(ws.ID, FormatStaff, "staff.csv"))
	_, _, err = store.Inputs(ws.ID)
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, store.Finish(ws.ID, FormatStaff, readyExtraction(FormatStaff), nil))
	staff, clients, err := store.Inputs(ws.ID)
	require.NoError(t, err)
	assert.Equal(t, FormatStaff, staff.Format)
	assert.Equal(t, FormatClients, clients.Format)

	_, _, err = store.Inputs("missing")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestWorkspaceStore_SlotsAreIndependent(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 0)
	ws, _ := store.Create()

	require.NoError(t, store.Begin(ws.ID, FormatStaff, "a.xlsx"))
	require.NoError(t, store.Begin(ws.ID, FormatClients, "b.xlsx"))
	assert.ErrorIs(t, store.Begin(ws.ID, FormatStaff, "again.xlsx"), ErrSlotBusy)

	// Clients finishes first.
	require.NoError(t, store.Finish(ws.ID, FormatClients, readyExtraction(FormatClients), nil))
	v, _ := store.Get(ws.ID)
	assert.True(t, v.Staff.Processing)
	assert.True(t, v.Clients.Ready)

	require.NoError(t, store.Finish(ws.ID, FormatStaff, nil, errors.New("open workbook: zip: not a valid zip file")))
	v, _ = store.Get(ws.ID)
	assert.False(t, v.Staff.Ready)
	assert.Contains(t, v.Staff.Error, "SHEET001")
	assert.True(t, v.Clients.Ready)
}

func TestWorkspaceStore_BeginResetsSlotAndResult(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 0)
	ws, _ := store.Create()
	for _, f := range Formats {
		require.NoError(t, store.Begin(ws.ID, f, "f"))
		require.NoError(t, store.Finish(ws.ID, f, readyExtraction(f), nil))
	}
	require.NoError(t, store.SetResult(ws.ID, MatchResult{}))

	require.NoError(t, store.Begin(ws.ID, FormatStaff, "new.xlsx"))
	v, _ := store.Get(ws.ID)
	assert.Nil(t, v.Result)
	assert.False(t, v.Staff.Ready)
	assert.True(t, v.Clients.Ready)

	assert.ErrorIs(t, store.Begin(ws.ID, Format("x"), "f"), ErrUnknownFormat)
}

func TestWorkspaceStore_Limit(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 2)

	_, err := store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	assert.ErrorIs(t, err, ErrWorkspaceLimit)
	assert.Equal(t, 2, store.Len())
}

func TestWorkspaceStore_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewWorkspaceStore(time.Hour, 0)
	store.now = func() time.Time { return now }

	idle, _ := store.Create()
	busy, _ := store.Create()
	require.NoError(t, store.Begin(busy.ID, FormatStaff, "slow.xlsx"))

	now = now.Add(30 * time.Minute)
	fresh, _ := store.Create()

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, store.Sweep())

	_, err := store.Get(idle.ID)
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	_, err = store.Get(busy.ID)
	assert.NoError(t, err)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestWorkspaceStore_SweepDisabled(t *testing.T) {
	store := NewWorkspaceStore(0, 0)
	store.now = func() time.Time { return time.Unix(0, 0) }
	_, _ = store.Create()
	store.now = time.Now

	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestWorkspaceStore_Result(t *testing.T) {
	store := NewWorkspaceStore(time.Hour, 0)
	ws, _ := store.Create()

	_, err := store.Result(ws.ID)
	assert.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, "WS006", MapError(err).Code)

	want := MatchResult{Matched: []string{"а"}, Unmatched: []string{}}
	require.NoError(t, store.SetResult(ws.ID, want))
	got, err := store.Result(ws.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
