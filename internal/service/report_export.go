package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iliyamo/studio-booking/internal/repository"
)

// ExportedReport names one file written by ExportReports.
type ExportedReport struct {
	Name string
	Path string
	Rows int
}

// ExportReports runs the three studio reports and writes each as indented
// JSON to dir/<name>.json, creating dir when needed.
func ExportReports(ctx context.Context, reports *repository.ReportRepo, dir string) ([]ExportedReport, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	spenders, err := reports.TopSpenders(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("top spenders: %w", err)
	}
	utilization, err := reports.ClassUtilization(ctx)
	if err != nil {
		return nil, fmt.Errorf("class utilization: %w", err)
	}
	popularity, err := reports.TrainingPopularityMonthly(ctx)
	if err != nil {
		return nil, fmt.Errorf("training popularity: %w", err)
	}

	out := make([]ExportedReport, 0, 3)
	for _, r := range []struct {
		name string
		rows any
		n    int
	}{
		{"top_spenders", spenders, len(spenders)},
		{"class_utilization", utilization, len(utilization)},
		{"training_pop_monthly", popularity, len(popularity)},
	} {
		bs, err := json.MarshalIndent(r.rows, "", "  ")
		if err != nil {
			return out, err
		}
		path := filepath.Join(dir, r.name+".json")
		if err := os.WriteFile(path, bs, 0o644); err != nil {
			return out, fmt.Errorf("write %s: %w", path, err)
		}
		out = append(out, ExportedReport{Name: r.name, Path: path, Rows: r.n})
	}
	return out, nil
}
