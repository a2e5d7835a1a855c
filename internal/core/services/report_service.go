package services

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
)

// ReportService renders charts of past runs
type ReportService struct {
	batches ports.BatchRepository
}

// NewReportService creates a new report service
func NewReportService(batches ports.BatchRepository) *ReportService {
	return &ReportService{
		batches: batches,
	}
}

// ReportRequest selects the run to chart. Empty RunID means the latest run.
type ReportRequest struct {
	RunID string
}

// ReportResponse summarises what was rendered
type ReportResponse struct {
	Batch   *domain.Batch
	Charted int
}

// Execute writes an HTML bar chart of per-item upload durations to w
func (s *ReportService) Execute(ctx context.Context, req ReportRequest, w io.Writer) (*ReportResponse, error) {
	batch, err := s.selectBatch(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	bar := BuildDurationChart(batch)
	if err := bar.Render(w); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return &ReportResponse{Batch: batch, Charted: len(batch.Items)}, nil
}

func (s *ReportService) selectBatch(ctx context.Context, id string) (*domain.Batch, error) {
	if id != "" {
		return s.batches.Get(ctx, id)
	}

	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no runs recorded yet")
	}
	return &batches[0], nil
}

// BuildDurationChart turns a batch into a bar chart, splitting successful and failed uploads
func BuildDurationChart(batch *domain.Batch) *charts.Bar {
	succeeded, failed := batch.Counts()

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "safeload run " + batch.ShortID(),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Upload duration per file",
			Subtitle: fmt.Sprintf("stamp %s, %d succeeded, %d failed",
				batch.Stamp, succeeded, failed),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)

	labels := make([]string, 0, len(batch.Items))
	okData := make([]opts.BarData, 0, len(batch.Items))
	failData := make([]opts.BarData, 0, len(batch.Items))

	for _, item := range batch.Items {
		labels = append(labels, strconv.Itoa(item.Index))
		seconds := item.Duration.Seconds()
		if item.Succeeded() {
			okData = append(okData, opts.BarData{Value: seconds})
			failData = append(failData, opts.BarData{Value: 0})
		} else {
			okData = append(okData, opts.BarData{Value: 0})
			failData = append(failData, opts.BarData{Value: seconds})
		}
	}

	bar.SetXAxis(labels).
		AddSeries("uploaded", okData).
		AddSeries("failed", failData)

	return bar
}
