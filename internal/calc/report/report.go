// Package report renders a structural risk assessment as a printable PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"SafeStruct/internal/calc/assess"

	"github.com/phpdave11/gofpdf"
)

const DefaultTitle = "Informe de Riesgo Estructural"

type Meta struct {
	Project string `json:"project"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Notes   string `json:"notes"`
}

// Render writes an A4 report dated at date.
func Render(w io.Writer, meta Meta, a assess.Assessment, date time.Time) error {
	if meta.Title == "" {
		meta.Title = DefaultTitle
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(meta.Title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := [][2]string{
		{"Proyecto", meta.Project},
		{"Autor", meta.Author},
		{"Fecha", date.Format("2006-01-02")},
		{"Ubicación", fmt.Sprintf("%.5f, %.5f", a.Input.Lat, a.Input.Lon)},
	}
	for _, kv := range header {
		pdf.Cell(0, 6, tr(kv[0]+": "+kv[1]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	zone := "zona por defecto"
	if a.Zone.Matched {
		zone = "zona registrada"
	}
	section(pdf, tr, "Datos de entrada")
	table(pdf, tr, [][2]string{
		{"Altura (m)", num(a.Input.HeightM)},
		{"Carga (kN)", num(a.Input.LoadKN)},
		{"Largo x ancho (m)", num(a.Input.LengthM) + " x " + num(a.Input.WidthM)},
		{"Área (m²)", num(a.AreaM2)},
		{"Volumen (m³)", num(a.VolumeM3)},
		{"Material", string(a.Input.Material)},
		{"PGA (g)", num(a.Zone.PGA) + " (" + zone + ")"},
		{"Tipo de suelo", string(a.Zone.Soil)},
	})

	f := a.Result.Factors
	section(pdf, tr, "Factores")
	table(pdf, tr, [][2]string{
		{"Factor PGA", num(f.PGA)},
		{"Amplificación de suelo", num(f.SoilAmplification)},
		{"Sísmico", num(f.Seismic)},
		{"Esbeltez", num(f.Slenderness)},
		{"Carga", num(f.Load)},
		{"Estructural", num(f.Structural)},
		{"Material", num(f.Material)},
		{"Área", num(f.Area)},
		{"Volumen", num(f.Volume)},
		{"Geométrico", num(f.Geometry)},
	})

	section(pdf, tr, "Resultado")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(fmt.Sprintf("IRS = %.2f  (%s)", a.Result.Index, a.Result.Category.Label())))
	pdf.Ln(10)

	if meta.Notes != "" {
		section(pdf, tr, "Notas")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(meta.Notes), "", "L", false)
	}

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(8)
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, rows [][2]string) {
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(70, 6, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, tr(row[1]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
