package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/namematch/internal/logging"
)

// ParseFunc turns an uploaded file into rows. The first sheet only; the
// header row is returned as ordinary data.
type ParseFunc func(fileName string, r io.Reader) ([]Row, error)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Layout        Layout
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
	WorkspaceTTL  time.Duration
	MaxWorkspaces int
}

// FileInput is one uploaded file.
type FileInput struct {
	Name   string
	Reader io.Reader
}

// Comparison is the outcome of comparing two files in one request.
type Comparison struct {
	Staff   *Extraction `json:"staff"`
	Clients *Extraction `json:"clients"`
	Result  MatchResult `json:"result"`
}

// Service is the entry point for extraction and comparison.
type Service struct {
	parse      ParseFunc
	auditor    Auditor
	layout     Layout
	timeout    time.Duration
	limiter    *ParseLimiter
	workspaces *WorkspaceStore
}

// NewService wires a Service. A nil auditor disables the audit trail.
func NewService(parse ParseFunc, auditor Auditor, opts Options) *Service {
	if auditor == nil {
		auditor = NopAuditor{}
	}
	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout()
	}
	return &Service{
		parse:      parse,
		auditor:    auditor,
		layout:     opts.Layout,
		timeout:    opts.Timeout,
		limiter:    NewParseLimiter(opts.MaxConcurrent, opts.MaxWait),
		workspaces: NewWorkspaceStore(opts.WorkspaceTTL, opts.MaxWorkspaces),
	}
}

// Layout returns the column layout used for extraction.
func (s *Service) Layout() Layout {
	return s.layout
}

// Workspaces exposes the session store.
func (s *Service) Workspaces() *WorkspaceStore {
	return s.workspaces
}

// LimiterStatus returns the parse limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForParses blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForParses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Extract parses one file and extracts the names for format.
func (s *Service) Extract(ctx context.Context, format Format, in FileInput) (*Extraction, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "format", format, "file", in.Name)

	ext, err := s.extract(ctx, format, in)
	if err != nil {
		logger.Warn("extraction failed", "error", err)
		s.record(ctx, RunRecord{Action: ActionExtract, Format: format, FileName: in.Name, Duration: time.Since(start), Error: err.Error()})
		return nil, err
	}

	logger.Info("extraction completed",
		"rows_read", ext.RowsRead,
		"extracted", ext.Count(),
		"duration_ms", ext.Duration.Milliseconds(),
	)
	s.record(ctx, RunRecord{
		Action:    ActionExtract,
		Format:    format,
		FileName:  in.Name,
		RowsRead:  ext.RowsRead,
		Extracted: ext.Count(),
		Duration:  ext.Duration,
	})
	return ext, nil
}

func (s *Service) extract(ctx context.Context, format Format, in FileInput) (*Extraction, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	rows, err := s.parse(in.Name, in.Reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", in.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext, err := Extract(format, rows, s.layout)
	if err != nil {
		return nil, err
	}
	ext.FileName = in.Name
	ext.Duration = time.Since(start)
	return ext, nil
}

// Upload extracts a file into the workspace slot for format. While it runs
// the slot reports processing; the other slot is untouched.
func (s *Service) Upload(ctx context.Context, workspaceID string, format Format, in FileInput) (WorkspaceView, error) {
	if err := s.workspaces.Begin(workspaceID, format, in.Name); err != nil {
		return WorkspaceView{}, err
	}

	ext, extractErr := s.Extract(ctx, format, in)
	if err := s.workspaces.Finish(workspaceID, format, ext, extractErr); err != nil {
		return WorkspaceView{}, err
	}
	if extractErr != nil {
		return WorkspaceView{}, extractErr
	}
	return s.workspaces.Get(workspaceID)
}

// Compare matches the two extractions held by the workspace. It fails with
// ErrNotReady unless both slots hold a finished extraction.
func (s *Service) Compare(ctx context.Context, workspaceID string) (MatchResult, error) {
	staff, clients, err := s.workspaces.Inputs(workspaceID)
	if err != nil {
		return MatchResult{}, err
	}

	result := s.match(ctx, workspaceID, staff, clients)
	if err := s.workspaces.SetResult(workspaceID, result); err != nil {
		return MatchResult{}, err
	}
	return result, nil
}

// CompareFiles extracts both files concurrently and matches them.
func (s *Service) CompareFiles(ctx context.Context, staffFile, clientsFile FileInput) (*Comparison, error) {
	var cmp Comparison

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ext, err := s.Extract(gctx, FormatStaff, staffFile)
		cmp.Staff = ext
		return err
	})
	g.Go(func() error {
		ext, err := s.Extract(gctx, FormatClients, clientsFile)
		cmp.Clients = ext
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp.Result = s.match(ctx, "", cmp.Staff, cmp.Clients)
	return &cmp, nil
}

func (s *Service) match(ctx context.Context, workspaceID string, staff, clients *Extraction) MatchResult {
	start := time.Now()
	result := Match(staff.Names, clients.Records)
	elapsed := time.Since(start)

	logging.WithFields(ctx, "workspace_id", workspaceID).Info("comparison completed",
		"staff", len(staff.Names),
		"clients", len(clients.Records),
		"matched", len(result.Matched),
		"unmatched", len(result.Unmatched),
		"duration_ms", elapsed.Milliseconds(),
	)
	s.record(ctx, RunRecord{
		Action:      ActionCompare,
		WorkspaceID: workspaceID,
		FileName:    staff.FileName + " / " + clients.FileName,
		RowsRead:    staff.RowsRead + clients.RowsRead,
		Extracted:   len(staff.Names) + len(clients.Records),
		Matched:     len(result.Matched),
		Unmatched:   len(result.Unmatched),
		Duration:    elapsed,
	})
	return result
}

// RecentRuns returns the latest audit records, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.auditor.RecentRuns(ctx, limit)
}

// record writes rec to the audit trail. Failures are logged, not returned.
func (s *Service) record(ctx context.Context, rec RunRecord) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	rec.IPAddress = IPAddressFromContext(ctx)
	rec.UserAgent = UserAgentFromContext(ctx)

	if err := s.auditor.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		slog.Warn("audit record failed", "action", rec.Action, "error", err)
	}
}
