package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"clearoute/internal/domain/entity"
)

// TimeLayout формат меток времени в отчётах.
const TimeLayout = "2006-01-02 15:04:05"

// PDF рисует отчёт аудита по источнику: сводку и таблицу всех кадров
// в порядке журнала.
func PDF(w io.Writer, rep *entity.SourceReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Audit Report: "+rep.Source, true)
	pdf.SetCreationDate(rep.GeneratedAt)
	// Встроенные шрифты знают только cp1252, остальное переводим.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Audit Report: "+rep.Source), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 10, fmt.Sprintf("Unique Defects: %d", rep.UniqueDefects), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, fmt.Sprintf("Frames Analyzed: %d", rep.Frames), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, "Date: "+rep.GeneratedAt.Format(TimeLayout), "", 1, "", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(60, 10, "Timestamp", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 10, "Visible", "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 10, "Status", "1", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, row := range rep.Rows {
		pdf.CellFormat(60, 10, row.Timestamp.Local().Format(TimeLayout), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 10, strconv.Itoa(row.DefectCount), "1", 0, "", false, 0, "")
		pdf.CellFormat(50, 10, string(row.Quality), "1", 1, "", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// FileName имя скачиваемого файла отчёта.
func FileName(source string) string {
	return "Report_" + source + ".pdf"
}
