package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/openquant/hindsight/internal/backtest"
	"github.com/openquant/hindsight/internal/core"
)

const reportPrefix = "reports"

// ReportArchive stores finished batch reports as JSON documents laid out
// by strategy and generation date.
type ReportArchive struct {
	store Store
}

// NewReportArchive creates a report archive over a blob store.
func NewReportArchive(store Store) *ReportArchive {
	return &ReportArchive{store: store}
}

// Save persists a report and returns its archive path.
func (a *ReportArchive) Save(ctx context.Context, report *backtest.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}
	p := reportPath(report)
	if err := a.store.Put(ctx, p, data); err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}
	return p, nil
}

// Load reads a report back from its archive path.
func (a *ReportArchive) Load(ctx context.Context, p string) (*backtest.Report, error) {
	data, err := a.store.Get(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrReportNotFound, err)
	}
	var report backtest.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return &report, nil
}

// List returns the archive paths of all reports for a strategy, or of all
// reports when strategy is empty.
func (a *ReportArchive) List(ctx context.Context, strategy string) ([]string, error) {
	prefix := reportPrefix
	if strategy != "" {
		prefix = path.Join(reportPrefix, sanitize(strategy))
	}
	paths, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return paths, nil
}

func reportPath(report *backtest.Report) string {
	return path.Join(
		reportPrefix,
		sanitize(report.StrategyID),
		report.GeneratedAt.UTC().Format("2006-01-02"),
		fmt.Sprintf("%s.json", report.ID),
	)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
