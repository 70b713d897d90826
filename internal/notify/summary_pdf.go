package notify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"lidar_maintenance/internal/models"
)

// BuildVisitSummaryPDF renders a one-page visit summary to attach to the
// notification mail.
func BuildVisitSummaryPDF(rec *models.MaintenanceRecord, incidents []models.Incident) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Mantenimiento LIDAR %s", rec.DeviceID)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Equipo", rec.DeviceID},
		{"Ubicación", rec.Location},
		{"Fecha de visita", rec.VisitDate.Format("02-01-2006")},
		{"Operarios DEKRA", joinOrDash(rec.InternalOperators)},
		{"Operarios externos", joinOrDash(rec.ExternalOperators)},
	}
	for _, r := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 7, tr(r[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(r[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, tr("Incidencias"))
	pdf.Ln(10)

	errs := models.ErrorTags(incidents)
	pdf.SetFont("Arial", "", 11)
	if len(errs) == 0 {
		pdf.Cell(0, 7, tr("Sin incidencias."))
		pdf.Ln(7)
	}
	for _, tag := range errs {
		pdf.CellFormat(0, 7, tr("- "+string(tag)), "", 1, "L", false, 0, "")
	}

	if rec.Comment != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, tr("Comentario"))
		pdf.Ln(10)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(rec.Comment), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render visit summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
