package utils

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerCaser = cases.Title(language.English)

// HumanizeColumn turns a column key such as "payment_status" into "Payment Status".
func HumanizeColumn(key string) string {
	return headerCaser.String(strings.ReplaceAll(key, "_", " "))
}

// BuildWorkbook writes one sheet with a bold, frozen header row followed by rows.
// Each row must have one value per column.
func BuildWorkbook(sheetName string, columns []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %w", err)
	}

	for col, column := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, HumanizeColumn(column)); err != nil {
			return nil, fmt.Errorf("error setting header %s: %w", column, err)
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("error styling header: %w", err)
		}
	}

	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r+1, len(row), len(columns))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", r+1, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("error freezing header: %w", err)
	}

	return f, nil
}
