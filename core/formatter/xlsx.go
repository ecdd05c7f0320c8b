package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// XLSXFormatter writes an Excel workbook with one sheet per section.
type XLSXFormatter struct{}

// NewXLSXFormatter creates a new xlsx formatter.
func NewXLSXFormatter() *XLSXFormatter {
	return &XLSXFormatter{}
}

// Name returns the formatter name.
func (f *XLSXFormatter) Name() string {
	return "xlsx"
}

// Description returns the formatter description.
func (f *XLSXFormatter) Description() string {
	return "Excel workbook, one sheet per table"
}

// Format writes result as an xlsx workbook.
func (f *XLSXFormatter) Format(w io.Writer, result any, opts FormatOptions) error {
	sections, err := Sections(result, opts.Columns)
	if err != nil {
		return err
	}

	wb := excelize.NewFile()
	defer wb.Close()

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	used := map[string]bool{}
	for i, s := range sections {
		name := sheetName(s.Title, used)
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := wb.NewSheet(name); err != nil {
			return err
		}
		if err := f.writeSheet(wb, name, s, opts, headerStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	return wb.Write(w)
}

func (f *XLSXFormatter) writeSheet(wb *excelize.File, sheet string, s Section, opts FormatOptions, headerStyle int) error {
	row := 1
	if !opts.NoHeader && len(s.Columns) > 0 {
		for i, col := range s.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := wb.SetCellValue(sheet, cell, col); err != nil {
				return err
			}
		}
		if err := wb.SetRowStyle(sheet, row, row, headerStyle); err != nil {
			return err
		}
		row++
	}

	for _, values := range s.Rows {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := wb.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
		}
		row++
	}

	if s.Footer != "" {
		cell, _ := excelize.CoordinatesToCellName(1, row+1)
		if err := wb.SetCellValue(sheet, cell, s.Footer); err != nil {
			return err
		}
	}
	return nil
}

// FormatError writes a workbook with a single error sheet.
func (f *XLSXFormatter) FormatError(w io.Writer, err error) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if serr := wb.SetSheetName("Sheet1", "error"); serr != nil {
		return serr
	}
	if serr := wb.SetCellValue("error", "A1", err.Error()); serr != nil {
		return serr
	}
	return wb.Write(w)
}

// cellValue keeps numbers and booleans typed in the workbook.
func cellValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if n, err := val.Float64(); err == nil {
			return n
		}
		return val.String()
	case string, bool, nil:
		return val
	default:
		return cellString(val, 0)
	}
}

// sheetName derives a unique, valid worksheet name from a section title.
func sheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(title, "'"))
	if name == "" {
		name = "result"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		if len(base)+len(suffix) > maxSheetName {
			name = base[:maxSheetName-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[strings.ToLower(name)] = true
	return name
}

func init() {
	if err := Register(NewXLSXFormatter()); err != nil {
		fmt.Printf("failed to register xlsx formatter: %v\n", err)
	}
}
