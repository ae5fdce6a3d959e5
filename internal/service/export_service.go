package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/dto"
)

// ── Export errors ──

var (
	ErrExportNoEntries    = errors.New("matrix has no entries")
	ErrExportGenerateFail = errors.New("failed to generate workbook")
)

var weekdayNames = [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

// ════════════════════════════════════════════════════════════
// Export: matrix entries as .xlsx
// ════════════════════════════════════════════════════════════
//
// Layout:
//   - sheet "Matriz", title row with name/year/segment
//   - one row per entry, ordered by date
//   - campo cells filled with the category colour

func (s *matrixService) Export(ctx context.Context, caller authz.Caller, id string) ([]byte, string, error) {
	matrix, err := s.authorizedMatrix(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.entries(ctx, matrix)
	if err != nil {
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	headers := []string{"Data", "Dia", "Semana", "Bimestre", "Campo de experiência", "Código",
		"Objetivo de aprendizagem", "Objetivo do currículo", "Intencionalidade", "Exemplo de atividade"}
	widths := []float64{12, 10, 8, 9, 30, 12, 50, 50, 45, 45}

	title := fmt.Sprintf("%s %d (%s)", matrix.Name, matrix.Year, matrix.Segment)
	buf, err := writeWorkbook("Matriz", title, headers, widths, func(w *sheetWriter) {
		for _, e := range entries {
			w.row(
				e.Date,
				weekdayName(e.DayOfWeek),
				e.WeekOfYear,
				intOrDash(e.Bimester),
				e.CampoLabel,
				strOrEmpty(e.ObjectiveCode),
				e.ObjectiveText,
				e.CurriculumText,
				strOrEmpty(e.Intentionality),
				strOrEmpty(e.ExampleActivity),
			)
			w.fillCampo(5, e.Campo)
		}
	})
	if err != nil {
		s.logger.Error("failed to write workbook", zap.String("matrix_id", id), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("matriz_%s_%d.xlsx", sanitizeFilename(matrix.Segment), matrix.Year)
	return buf.Bytes(), filename, nil
}

// ════════════════════════════════════════════════════════════
// PreviewWorkbook: dry-run classification as .xlsx
// ════════════════════════════════════════════════════════════

func (s *matrixService) PreviewWorkbook(res *dto.ImportResult) ([]byte, string, error) {
	headers := []string{"Ação", "Data", "Campo", "Código", "Objetivo de aprendizagem",
		"Campos alterados", "Campos protegidos"}
	widths := []float64{12, 12, 8, 12, 60, 40, 40}

	title := fmt.Sprintf("Pré-visualização: %d novas, %d alteradas, %d sem mudança, %d falhas",
		res.TotalInserted, res.TotalUpdated, res.TotalUnchanged, res.TotalFailed)
	buf, err := writeWorkbook("Importação", title, headers, widths, func(w *sheetWriter) {
		for _, p := range res.Preview {
			w.row(
				p.Action,
				p.Date,
				string(p.Entry.Campo),
				p.Entry.ObjectiveCode,
				p.Entry.ObjectiveText,
				strings.Join(p.ChangedFields, ", "),
				strings.Join(p.ProtectedFields, ", "),
			)
			w.fillCampo(3, string(p.Entry.Campo))
		}
		if len(res.Errors) > 0 {
			w.sheet("Erros", []string{"Mensagem"}, []float64{120})
			for _, e := range res.Errors {
				w.row(e)
			}
		}
	})
	if err != nil {
		s.logger.Error("failed to write preview workbook", zap.String("matrix_id", res.MatrixID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf.Bytes(), fmt.Sprintf("importacao_%s.xlsx", res.MatrixID), nil
}

// ── Workbook helpers ──

var campoColors = map[string]string{
	string(curriculum.CampoEuOutroNos):    "#F8CBAD",
	string(curriculum.CampoCorpoGestos):   "#C6E0B4",
	string(curriculum.CampoTracosSons):    "#FFE699",
	string(curriculum.CampoEscutaFala):    "#BDD7EE",
	string(curriculum.CampoEspacosTempos): "#D9C3E9",
}

type sheetWriter struct {
	f          *excelize.File
	name       string
	rowNum     int
	campoStyle map[string]int
	err        error
}

// writeWorkbook creates a single-sheet workbook with a title row and a
// header row, then lets fill append data rows.
func writeWorkbook(sheet, title string, headers []string, widths []float64, fill func(*sheetWriter)) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	w := &sheetWriter{f: f, name: sheet, campoStyle: make(map[string]int)}
	for code, color := range campoColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, err
		}
		w.campoStyle[code] = style
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	w.rowNum = 1
	w.header(headers, widths)

	fill(w)
	if w.err != nil {
		return nil, w.err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (w *sheetWriter) header(headers []string, widths []float64) {
	headerStyle, err := w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		w.err = err
		return
	}
	for i, width := range widths {
		col := colName(i)
		w.f.SetColWidth(w.name, col, col, width)
	}
	w.rowNum++
	for i, h := range headers {
		w.f.SetCellValue(w.name, cell(colName(i), w.rowNum), h)
	}
	w.f.SetCellStyle(w.name, cell("A", w.rowNum), cell(colName(len(headers)-1), w.rowNum), headerStyle)
	w.f.SetPanes(w.name, &excelize.Panes{Freeze: true, YSplit: w.rowNum, TopLeftCell: cell("A", w.rowNum+1), ActivePane: "bottomLeft"})
}

// sheet starts a new sheet; later rows go there.
func (w *sheetWriter) sheet(name string, headers []string, widths []float64) {
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = err
		return
	}
	w.name = name
	w.rowNum = 0
	w.header(headers, widths)
}

func (w *sheetWriter) row(values ...interface{}) {
	w.rowNum++
	for i, v := range values {
		w.f.SetCellValue(w.name, cell(colName(i), w.rowNum), v)
	}
}

// fillCampo colours the given zero-based column of the current row.
func (w *sheetWriter) fillCampo(col int, campo string) {
	if style, ok := w.campoStyle[campo]; ok {
		c := cell(colName(col), w.rowNum)
		w.f.SetCellStyle(w.name, c, c, style)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func weekdayName(dow int) string {
	if dow < 0 || dow > 6 {
		return "-"
	}
	return weekdayNames[dow]
}

func intOrDash(v *int) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
