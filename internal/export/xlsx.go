package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"timekeeping-backend/internal/model"
)

const (
	// XLSXContentType is the media type of Timesheets output.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timesheetSheet = "Timesheets"
	cellTimeLayout = "2006-01-02 15:04"
)

var timesheetHeader = []string{
	"Shift ID", "Worker", "Project", "Clock in (UTC)", "Clock out (UTC)",
	"Break minutes", "Worked minutes", "Status", "Reviewed by", "Reviewed at (UTC)",
}

// Timesheets renders shifts as a single-sheet workbook and returns it with
// a download file name.
func Timesheets(companyID string, status model.ShiftStatus, shifts []model.Shift, now time.Time) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(timesheetSheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("create header style: %w", err)
	}

	for i, title := range timesheetHeader {
		f.SetCellValue(timesheetSheet, cell(i, 1), title)
	}
	f.SetCellStyle(timesheetSheet, cell(0, 1), cell(len(timesheetHeader)-1, 1), headerStyle)
	f.SetColWidth(timesheetSheet, "A", "A", 38)
	f.SetColWidth(timesheetSheet, "B", "C", 18)
	f.SetColWidth(timesheetSheet, "D", "E", 18)
	f.SetColWidth(timesheetSheet, "F", "H", 14)
	f.SetColWidth(timesheetSheet, "I", "J", 18)

	totalWorked, totalBreak := 0, 0
	row := 2
	for i := range shifts {
		s := &shifts[i]
		values := []interface{}{
			s.ID,
			s.WorkerID,
			deref(s.ProjectID),
			s.ClockIn.UTC().Format(cellTimeLayout),
			formatTime(s.ClockOut),
			s.TotalBreakMinutes,
			s.WorkedMinutes(),
			string(s.Status),
			deref(s.ReviewedBy),
			formatTime(s.ReviewedAt),
		}
		for col, v := range values {
			f.SetCellValue(timesheetSheet, cell(col, row), v)
		}
		totalWorked += s.WorkedMinutes()
		totalBreak += s.TotalBreakMinutes
		row++
	}

	// Totals row.
	f.SetCellValue(timesheetSheet, cell(0, row), "Total")
	f.SetCellValue(timesheetSheet, cell(5, row), totalBreak)
	f.SetCellValue(timesheetSheet, cell(6, row), totalWorked)
	f.SetCellStyle(timesheetSheet, cell(0, row), cell(len(timesheetHeader)-1, row), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("timesheets_%s_%s_%s.xlsx", companyID, status, now.UTC().Format("20060102"))
	return buf, filename, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(cellTimeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
