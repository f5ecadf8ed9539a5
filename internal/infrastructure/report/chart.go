package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"clearoute/internal/domain/entity"
)

const lineWidth = 2

// TimelineChart строит график выбоин на кадре по времени и накопленного
// числа уникальных выбоин. Точки идут от старых к новым.
func TimelineChart(rep *entity.SourceReport) *charts.Line {
	rows := rep.Chronological()

	labels := make([]string, len(rows))
	visible := make([]opts.LineData, len(rows))
	unique := make([]opts.LineData, len(rows))

	var tally entity.Tally
	for i, o := range rows {
		labels[i] = o.Timestamp.Local().Format(TimeLayout)
		visible[i] = opts.LineData{Value: o.DefectCount}
		unique[i] = opts.LineData{Value: tally.Observe(o.DefectCount)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Detection Timeline: " + rep.Source,
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Detection Timeline",
			Subtitle: fmt.Sprintf("%s, unique defects: %d", rep.Source, rep.UniqueDefects),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Potholes"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Visible", visible,
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Unique (cumulative)", unique,
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Type: "dashed"}),
	)

	return line
}

// Timeline рендерит график в самостоятельную HTML-страницу.
func Timeline(w io.Writer, rep *entity.SourceReport) error {
	if err := TimelineChart(rep).Render(w); err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}
	return nil
}

// SaveTimeline пишет HTML-график в файл path.
func SaveTimeline(path string, rep *entity.SourceReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := Timeline(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart: %w", err)
	}
	return nil
}
