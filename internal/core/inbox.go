package core

// inbox.go imports export files dropped into a directory tree:
//
//	<inbox>/<tenant-uuid>/*.csv
//
// Each file is imported for the tenant named by its directory and then moved
// to Processed/ (or Failed/ when it could not be read) next to it, so a file is
// never imported twice. Tenants are scanned in parallel; files of one tenant
// are imported one at a time, in name order.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Subdirectories files are moved to after an import attempt.
const (
	ProcessedDir = "Processed"
	FailedDir    = "Failed"
)

// InboxConfig holds configuration for the inbox scheduler.
type InboxConfig struct {
	Dir         string        // Root inbox directory
	Interval    time.Duration // How often to scan (default: 5m)
	Source      string        // Source key for inbox files (default: service default)
	Parallelism int           // Tenants scanned at once (default: 2)
}

// InboxSummary reports one scan of the inbox.
type InboxSummary struct {
	Files    int
	Imported int
	Failed   int
	Result   SyncResult
}

// StartInboxScheduler scans the inbox immediately and then every Interval
// until ctx is cancelled. Scan errors are logged, never fatal.
func (s *Service) StartInboxScheduler(ctx context.Context, cfg InboxConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	slog.Info("inbox scheduler started", "dir", cfg.Dir, "interval", cfg.Interval.String())

	s.runInboxJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("inbox scheduler stopped")
			return
		case <-ticker.C:
			s.runInboxJob(ctx, cfg)
		}
	}
}

func (s *Service) runInboxJob(ctx context.Context, cfg InboxConfig) {
	start := time.Now()
	summary, err := s.ScanInbox(ctx, cfg)
	if err != nil {
		slog.Error("inbox scan failed", "dir", cfg.Dir, "error", err)
		return
	}
	if summary.Files == 0 {
		slog.Debug("inbox empty", "dir", cfg.Dir)
		return
	}
	slog.Info("inbox scan completed",
		"files", summary.Files,
		"imported", summary.Imported,
		"failed", summary.Failed,
		"created", summary.Result.Created,
		"updated", summary.Result.Updated,
		"unchanged", summary.Result.Unchanged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// ScanInbox imports every pending file in the inbox once.
// Directories whose name is not a tenant UUID are ignored.
func (s *Service) ScanInbox(ctx context.Context, cfg InboxConfig) (InboxSummary, error) {
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return InboxSummary{}, fmt.Errorf("read inbox: %w", err)
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 2
	}

	var (
		mu      sync.Mutex
		summary InboxSummary
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tenantID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		dir := filepath.Join(cfg.Dir, entry.Name())

		g.Go(func() error {
			part := s.importTenantDir(gCtx, tenantID, dir, cfg.Source)
			mu.Lock()
			summary.merge(part)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Service) importTenantDir(ctx context.Context, tenantID uuid.UUID, dir, source string) InboxSummary {
	var summary InboxSummary
	files, err := pendingFiles(dir)
	if err != nil {
		slog.Error("read tenant inbox", "tenant_id", tenantID.String(), "dir", dir, "error", err)
		return summary
	}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		summary.Files++

		report, err := s.ImportFile(ctx, tenantID, source, path)
		if errors.Is(err, ErrTooManyImports) || ctx.Err() != nil {
			// Left in place for the next scan.
			summary.Files--
			continue
		}

		target := ProcessedDir
		if err != nil {
			target = FailedDir
			summary.Failed++
			slog.Error("inbox import failed",
				"tenant_id", tenantID.String(),
				"file", filepath.Base(path),
				"error", err,
				"code", MapError(err).Code,
			)
		} else {
			summary.Imported++
			summary.Result.add(report.Result)
		}

		if err := moveTo(path, filepath.Join(dir, target)); err != nil {
			slog.Warn("could not move inbox file", "file", path, "error", err)
		}
	}
	return summary
}

// ImportFile imports one CSV file from disk.
func (s *Service) ImportFile(ctx context.Context, tenantID uuid.UUID, source, path string) (*ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return s.ImportCSV(ctx, tenantID, source, filepath.Base(path), f)
}

// pendingFiles lists the CSV files directly inside dir, sorted by name.
func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func moveTo(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}

func (sum *InboxSummary) merge(other InboxSummary) {
	sum.Files += other.Files
	sum.Imported += other.Imported
	sum.Failed += other.Failed
	sum.Result.add(other.Result)
}

// add accumulates counters; details are not carried across files.
func (r *SyncResult) add(other SyncResult) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	r.Failed += other.Failed
}
