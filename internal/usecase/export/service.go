// Package export writes a result table out as an Excel workbook or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/tablastic/tablastic/internal/domain/table"
)

const sheetName = "Results"

// Service exports tables. Stateless; one call per file.
type Service struct{}

// New creates an export service.
func New() *Service {
	return &Service{}
}

// Excel writes the table as an .xlsx workbook to path, creating parent
// directories as needed.
func (s *Service) Excel(t *table.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := s.workbook(t)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// ExcelTo streams the workbook to w, for HTTP attachment responses.
func (s *Service) ExcelTo(t *table.Table, w io.Writer) error {
	f, err := s.workbook(t)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// workbook builds the in-memory workbook: header row from the column list,
// one sheet row per table row, absent cells left blank.
func (s *Service) workbook(t *table.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	columns := t.Columns()
	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("set header %q: %w", header, err)
		}
	}
	for rowIdx, row := range t.Rows() {
		for col, header := range columns {
			v, ok := row[header]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// Drop the default sheet so the workbook opens on Results.
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return f, nil
}

// CSV writes the table as comma-separated values with a header row.
func (s *Service) CSV(t *table.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range t.Rows() {
		for i, col := range columns {
			if v, ok := row[col]; ok {
				record[i] = table.Render(v)
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
