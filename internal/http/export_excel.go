package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	excelTimeLayout  = "2006-01-02 15:04:05"
)

// excelColumn is a header with its width.
type excelColumn struct {
	Header string
	Width  float64
}

var incidentExportColumns = []excelColumn{
	{"Incident ID", 26},
	{"Title", 30},
	{"Severity", 12},
	{"Category", 15},
	{"Status", 15},
	{"Priority", 12},
	{"Area", 20},
	{"Reported By", 20},
	{"Assigned To", 20},
	{"Created At", 20},
	{"Age (h)", 10},
	{"Overdue", 10},
}

var calendarExportColumns = []excelColumn{
	{"Machine ID", 26},
	{"Machine Name", 25},
	{"Task ID", 26},
	{"Task Name", 30},
	{"Task Type", 15},
	{"Priority", 12},
	{"Status", 15},
	{"Assigned To", 20},
	{"Next Due", 20},
	{"Due In (h)", 12},
}

// GenerateIncidentExport renders incidents as a single-sheet workbook.
func GenerateIncidentExport(items []domain.IncidentView) ([]byte, error) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{
			it.IncidentID,
			it.Title,
			string(it.Severity),
			string(it.Category),
			string(it.Status),
			string(it.Priority),
			it.Location.Area,
			it.ReportedBy,
			it.AssignedTo,
			it.CreatedAt.Format(excelTimeLayout),
			it.AgeInHours,
			yesNo(it.IsOverdue),
		})
	}
	return generateSheet("Incidents", incidentExportColumns, rows)
}

// GenerateCalendarExport renders active calendar tasks. Due In is computed against now.
func GenerateCalendarExport(entries []service.CalendarEntry, now time.Time) ([]byte, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var due, dueIn any
		if e.NextDueDate != nil {
			due = e.NextDueDate.Format(excelTimeLayout)
			dueIn = int64(e.NextDueDate.Sub(now) / time.Hour)
		}
		rows = append(rows, []any{
			e.MachineID,
			e.MachineName,
			e.TaskID,
			e.TaskName,
			string(e.TaskType),
			string(e.Priority),
			string(e.Status),
			e.AssignedTo,
			due,
			dueIn,
		})
	}
	return generateSheet("Maintenance Calendar", calendarExportColumns, rows)
}

func generateSheet(sheetName string, columns []excelColumn, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close is called explicitly on every path.

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, c.Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, c.Width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, values := range rows {
		for c, v := range values {
			if v == nil || v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeExcel(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", excelContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
