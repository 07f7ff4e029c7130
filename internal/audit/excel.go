package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var reportColumns = []string{"Time", "Action", "Reservation", "Actor", "Details"}

// ExportExcel writes the audit trail of a business as an xlsx workbook with
// one sheet per report.
func ExportExcel(w io.Writer, businessName string, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := businessName
	if sheet == "" {
		sheet = "Report"
	}
	// Excel caps sheet names at 31 chars.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	f.SetSheetName("Sheet1", sheet)

	for i, col := range reportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, e := range entries {
		row := []interface{}{
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Action,
			e.ReservationID,
			e.ActorID,
			e.Details,
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	return f.Write(w)
}
