package core

// workspace.go holds the per-session state of the two-file workflow.
//
// A workspace has one slot per format. Each upload writes only its own
// slot, so the two extractions never share state and may finish in any
// order. Compare reads both slots through Inputs, which is the readiness
// gate: it refuses while a slot is empty or processing.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slot struct {
	processing bool
	fileName   string
	extraction *Extraction
	err        string
}

type workspace struct {
	id        string
	createdAt time.Time
	touchedAt time.Time
	slots     map[Format]*slot
	result    *MatchResult
}

// SlotView is a read-only snapshot of one slot.
type SlotView struct {
	Format     Format `json:"format"`
	Label      string `json:"label"`
	FileName   string `json:"fileName,omitempty"`
	Processing bool   `json:"processing"`
	Ready      bool   `json:"ready"`
	RowsRead   int    `json:"rowsRead"`
	Extracted  int    `json:"extracted"`
	Error      string `json:"error,omitempty"`
}

// WorkspaceView is a read-only snapshot of a workspace.
type WorkspaceView struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Staff     SlotView     `json:"staff"`
	Clients   SlotView     `json:"clients"`
	Result    *MatchResult `json:"result,omitempty"`
}

// Ready reports whether both files are extracted and compare may run.
func (v WorkspaceView) Ready() bool {
	return v.Staff.Ready && v.Clients.Ready
}

// Processing reports whether either slot is still being extracted.
func (v WorkspaceView) Processing() bool {
	return v.Staff.Processing || v.Clients.Processing
}

// Message returns the status line shown to the user.
func (v WorkspaceView) Message() string {
	switch {
	case v.Result != nil:
		return "Сравнение завершено. Показать результаты!"
	case v.Staff.Processing:
		return "Загружаем файл из 1С..."
	case v.Clients.Processing:
		return "Загружаем файл из дисконтной карты..."
	case v.Ready():
		return "Файлы загружены. Готовы к сравнению..."
	case v.Staff.Ready:
		return "Файл из 1С загружен. Ожидаем второй файл..."
	case v.Clients.Ready:
		return "Файл из дисконтной карты загружен. Ожидаем файл из 1С..."
	default:
		return "Загрузите оба файла"
	}
}

// WorkspaceStore keeps workspaces in memory. Safe for concurrent use.
type WorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[string]*workspace
	ttl        time.Duration
	max        int
	now        func() time.Time
}

// NewWorkspaceStore creates a store. Workspaces untouched for ttl are
// removed by Sweep; max bounds the number of live workspaces (0 = no limit).
func NewWorkspaceStore(ttl time.Duration, max int) *WorkspaceStore {
	return &WorkspaceStore{
		workspaces: make(map[string]*workspace),
		ttl:        ttl,
		max:        max,
		now:        time.Now,
	}
}

// Create opens a new empty workspace.
func (s *WorkspaceStore) Create() (WorkspaceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.workspaces) >= s.max {
		return WorkspaceView{}, ErrWorkspaceLimit
	}

	now := s.now()
	ws := &workspace{
		id:        uuid.NewString(),
		createdAt: now,
		touchedAt: now,
		slots:     make(map[Format]*slot, len(Formats)),
	}
	for _, f := range Formats {
		ws.slots[f] = &slot{}
	}
	s.workspaces[ws.id] = ws
	return ws.view(), nil
}

// Get returns a snapshot of the workspace.
func (s *WorkspaceStore) Get(id string) (WorkspaceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return WorkspaceView{}, err
	}
	return ws.view(), nil
}

// Begin marks the slot for format as processing a new file. Any previous
// extraction in that slot and any earlier result are discarded.
func (s *WorkspaceStore) Begin(id string, format Format, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return err
	}
	sl, ok := ws.slots[format]
	if !ok {
		return ErrUnknownFormat
	}
	if sl.processing {
		return ErrSlotBusy
	}
	*sl = slot{processing: true, fileName: fileName}
	ws.result = nil
	return nil
}

// Finish stores the outcome of an extraction started with Begin.
func (s *WorkspaceStore) Finish(id string, format Format, ext *Extraction, extractErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return err
	}
	sl, ok := ws.slots[format]
	if !ok {
		return ErrUnknownFormat
	}
	sl.processing = false
	if extractErr != nil {
		sl.extraction = nil
		sl.err = FormatUserError(extractErr)
		return nil
	}
	sl.extraction = ext
	sl.err = ""
	return nil
}

// Inputs returns both extractions, or ErrNotReady while either is missing
// or still processing.
func (s *WorkspaceStore) Inputs(id string) (staff, clients *Extraction, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	a, b := ws.slots[FormatStaff], ws.slots[FormatClients]
	if a.processing || b.processing || a.extraction == nil || b.extraction == nil {
		return nil, nil, ErrNotReady
	}
	return a.extraction, b.extraction, nil
}

// SetResult records the latest comparison for the workspace.
func (s *WorkspaceStore) SetResult(id string, result MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return err
	}
	ws.result = &result
	return nil
}

// Delete removes a workspace. Unknown ids are ignored.
func (s *WorkspaceStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, id)
}

// Len returns the number of live workspaces.
func (s *WorkspaceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep removes workspaces idle for longer than the TTL and returns how
// many were removed. Workspaces with a slot still processing are kept.
func (s *WorkspaceStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, ws := range s.workspaces {
		if ws.touchedAt.After(cutoff) || ws.busy() {
			continue
		}
		delete(s.workspaces, id)
		removed++
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *WorkspaceStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("workspace sweeper started", "interval", interval, "ttl", s.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("workspace sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired workspaces removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

// lookup finds a workspace and refreshes its idle timer. Caller holds mu.
func (s *WorkspaceStore) lookup(id string) (*workspace, error) {
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	ws.touchedAt = s.now()
	return ws, nil
}

func (ws *workspace) busy() bool {
	for _, sl := range ws.slots {
		if sl.processing {
			return true
		}
	}
	return false
}

func (ws *workspace) view() WorkspaceView {
	v := WorkspaceView{
		ID:        ws.id,
		CreatedAt: ws.createdAt,
		Staff:     ws.slots[FormatStaff].view(FormatStaff),
		Clients:   ws.slots[FormatClients].view(FormatClients),
	}
	if ws.result != nil {
		r := *ws.result
		v.Result = &r
	}
	return v
}

func (sl *slot) view(format Format) SlotView {
	v := SlotView{
		Format:     format,
		Label:      format.Label(),
		FileName:   sl.fileName,
		Processing: sl.processing,
		Error:      sl.err,
	}
	if sl.extraction != nil {
		v.Ready = true
		v.RowsRead = sl.extraction.RowsRead
		v.Extracted = sl.extraction.Count()
	}
	return v
}

// Result returns the latest comparison, or ErrNoResult before Compare ran.
func (s *WorkspaceStore) Result(id string) (MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.lookup(id)
	if err != nil {
		return MatchResult{}, err
	}
	if ws.result == nil {
		return MatchResult{}, ErrNoResult
	}
	return *ws.result, nil
}
