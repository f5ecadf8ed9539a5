package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"clearoute/internal/domain/entity"
)

var (
	badStyle  = color.New(color.FgRed, color.Bold)
	goodStyle = color.New(color.FgGreen)
)

// Status раскрашивает оценку для терминала.
func Status(q entity.Quality) string {
	if q == entity.QualityBad {
		return badStyle.Sprint(string(q))
	}
	return goodStyle.Sprint(string(q))
}

// Table печатает записи журнала в порядке хранилища.
// limit > 0 ограничивает число строк.
func Table(w io.Writer, observations []entity.Observation, now time.Time, limit int) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Time", "Source", "Potholes", "Status"})

	if limit > 0 && len(observations) > limit {
		observations = observations[:limit]
	}
	for _, o := range observations {
		tbl.AppendRow(table.Row{
			o.ID,
			fmt.Sprintf("%s (%s)", o.Timestamp.Local().Format(TimeLayout), humanize.RelTime(o.Timestamp, now, "ago", "from now")),
			o.Source,
			o.DefectCount,
			Status(o.Quality),
		})
	}
	if len(observations) == 0 {
		tbl.AppendRow(table.Row{"", "No data yet. Run the simulation.", "", "", ""})
	}

	_, err := io.WriteString(w, tbl.Render()+"\n")
	return err
}

// newTable таблица в стиле Light с заголовками как есть, без перевода в верхний регистр.
func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

// Summary печатает по строке на источник: кадры и уникальные выбоины.
func Summary(w io.Writer, reports []*entity.SourceReport) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Source", "Frames", "Unique Defects", "Last"})

	total := 0
	for _, rep := range reports {
		last := "-"
		if len(rep.Rows) > 0 {
			last = Status(rep.Rows[0].Quality) + " " + strconv.Itoa(rep.Rows[0].DefectCount)
		}
		tbl.AppendRow(table.Row{rep.Source, humanize.Comma(int64(rep.Frames)), rep.UniqueDefects, last})
		total += rep.UniqueDefects
	}
	tbl.AppendFooter(table.Row{"Total", "", total, ""})

	_, err := io.WriteString(w, tbl.Render()+"\n")
	return err
}
