package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParse treats the reader content as lines of ';'-separated text cells.
func fakeParse(fileName string, r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(fileName, ".bad") {
		return nil, errors.New("open workbook: zip: not a valid zip file")
	}
	var rows []Row
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		rows = append(rows, TextRow(strings.Split(line, ";")...))
	}
	return rows, nil
}

type recordingAuditor struct {
	mu   sync.Mutex
	runs []RunRecord
}

func (a *recordingAuditor) RecordRun(_ context.Context, rec RunRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, rec)
	return nil
}

func (a *recordingAuditor) RecentRuns(_ context.Context, limit int) ([]RunRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit > len(a.runs) {
		limit = len(a.runs)
	}
	return append([]RunRecord(nil), a.runs[:limit]...), nil
}

const (
	staffCSV   = "№;ФИО\n1;Иванов Иван\n2;Петров Петр\n"
	clientsCSV = "0;1;2;3;4;Фамилия;Имя;Отчество\n0;1;2;3;4;Иванов;Иван;\n"
)

func newTestService(auditor Auditor) *Service {
	return NewService(fakeParse, auditor, Options{MaxConcurrent: 2, MaxWait: time.Second, WorkspaceTTL: time.Hour})
}

func input(name, content string) FileInput {
	return FileInput{Name: name, Reader: strings.NewReader(content)}
}

func TestService_Extract(t *testing.T) {
	svc := newTestService(nil)

	ext, err := svc.Extract(context.Background(), FormatStaff, input("staff.csv", staffCSV))
	require.NoError(t, err)
	assert.Equal(t, "staff.csv", ext.FileName)
	assert.Equal(t, 3, ext.RowsRead)
	// The header row is ordinary data.
	assert.Equal(t, []string{"фио", "иванов иван", "петров петр"}, ext.Names)

	_, err = svc.Extract(context.Background(), FormatStaff, input("staff.bad", ""))
	require.Error(t, err)
	assert.Equal(t, "SHEET001", MapError(err).Code)
}

func TestService_UploadAndCompare(t *testing.T) {
	auditor := &recordingAuditor{}
	svc := newTestService(auditor)
	ctx := ContextWithIPAddress(context.Background(), "10.0.0.1")

	ws, err := svc.Workspaces().Create()
	require.NoError(t, err)

	_, err = svc.Compare(ctx, ws.ID)
	assert.ErrorIs(t, err, ErrNotReady)

	v, err := svc.Upload(ctx, ws.ID, FormatClients, input("cards.csv", clientsCSV))
	require.NoError(t, err)
	assert.True(t, v.Clients.Ready)
	assert.False(t, v.Staff.Ready)

	_, err = svc.Compare(ctx, ws.ID)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = svc.Upload(ctx, ws.ID, FormatStaff, input("staff.csv", staffCSV))
	require.NoError(t, err)

	result, err := svc.Compare(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"иванов иван"}, result.Matched)
	assert.Equal(t, []string{"фио", "петров петр"}, result.Unmatched)

	v, err = svc.Workspaces().Get(ws.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Result)
	assert.Equal(t, result, *v.Result)

	runs, err := svc.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ActionCompare, runs[2].Action)
	assert.Equal(t, 1, runs[2].Matched)
	assert.Equal(t, 2, runs[2].Unmatched)
	assert.Equal(t, "10.0.0.1", runs[2].IPAddress)
	for _, r := range runs {
		assert.NotEmpty(t, r.ID)
	}
}

func TestService_UploadFailureLeavesSlotEmpty(t *testing.T) {
	svc := newTestService(nil)
	ws, _ := svc.Workspaces().Create()

	_, err := svc.Upload(context.Background(), ws.ID, FormatStaff, input("staff.bad", ""))
	require.Error(t, err)

	v, err := svc.Workspaces().Get(ws.ID)
	require.NoError(t, err)
	assert.False(t, v.Staff.Processing)
	assert.False(t, v.Staff.Ready)
	assert.Contains(t, v.Staff.Error, "SHEET001")
}

func TestService_UploadUnknownWorkspace(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Upload(context.Background(), "nope", FormatStaff, input("staff.csv", staffCSV))
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestService_CompareFiles(t *testing.T) {
	svc := newTestService(nil)

	cmp, err := svc.CompareFiles(context.Background(),
		input("staff.csv", staffCSV),
		input("cards.csv", clientsCSV),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.Staff.Count())
	assert.Equal(t, 2, cmp.Clients.Count())
	assert.Equal(t, []string{"иванов иван"}, cmp.Result.Matched)

	_, err = svc.CompareFiles(context.Background(),
		input("staff.csv", staffCSV),
		input("cards.bad", ""),
	)
	assert.Error(t, err)
}

func TestService_ConcurrentUploads(t *testing.T) {
	svc := newTestService(nil)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		ws, err := svc.Workspaces().Create()
		require.NoError(t, err)
		ids[i] = ws.ID
	}

	for _, id := range ids {
		for _, f := range Formats {
			wg.Add(1)
			go func(id string, f Format) {
				defer wg.Done()
				content := staffCSV
				if f == FormatClients {
					content = clientsCSV
				}
				_, err := svc.Upload(context.Background(), id, f, input(fmt.Sprintf("%s.csv", f), content))
				assert.NoError(t, err)
			}(id, f)
		}
	}
	wg.Wait()

	for _, id := range ids {
		result, err := svc.Compare(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Total())
	}
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestService_DefaultLayout(t *testing.T) {
	svc := NewService(fakeParse, nil, Options{})
	assert.Equal(t, DefaultLayout(), svc.Layout())
}
