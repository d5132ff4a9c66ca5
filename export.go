package main

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"mliatlas/internal/mli"
)

// Exporter writes the rankings table and supporting analysis to an
// XLSX workbook.
type Exporter struct {
	dataset    *mli.Dataset
	divergence *Divergence
}

// NewExporter creates an exporter over the loaded data.
func NewExporter(ds *mli.Dataset, div *Divergence) *Exporter {
	return &Exporter{dataset: ds, divergence: div}
}

// Export builds the workbook for one year: a Rankings sheet with the
// full table, a National sheet with the yearly averages, and, when the
// divergence analysis is loaded, a Divergence sheet with the 2018-2023
// movers.
func (e *Exporter) Export(year int) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := e.fillRankingsSheet(f, year); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.fillNationalSheet(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	if e.divergence != nil {
		if err := e.fillDivergenceSheet(f); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// ExportToFile writes the workbook to path.
func (e *Exporter) ExportToFile(year int, path string) error {
	f, err := e.Export(year)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		if logger != nil {
			logger.Error("Failed to save workbook", "error", err, "path", path)
		}
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	if logger != nil {
		logger.Info("Workbook exported", "path", path, "year", year)
	}

	return nil
}

func (e *Exporter) fillRankingsSheet(f *excelize.File, year int) error {
	const sheet = "Rankings"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Rank", "State", "MLI", "Income", "Cost of Living", "Surplus", "1yr Change", "5yr Change", "Bucket"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	rows := mli.BuildRows(e.dataset, year)
	for i, row := range rows {
		values := []interface{}{
			row.Rank, row.Name, row.MLI, row.Income, row.CostOfLiving,
			row.Surplus, row.Change, row.Change5yr, row.Bucket.Label(),
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write rankings row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 20); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "I", 14)
}

func (e *Exporter) fillNationalSheet(f *excelize.File) error {
	const sheet = "National"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create national sheet: %w", err)
	}

	headers := []string{"Year", "Avg MLI", "Avg Income", "Avg Cost of Living", "Avg Surplus"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	rowIdx := 2
	for _, year := range e.dataset.Years {
		nat, ok := e.dataset.National[year]
		if !ok {
			continue
		}
		values := []interface{}{year, nat.AvgMLI, nat.AvgIncome, nat.AvgCol, nat.AvgSurplus}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write national row %d: %w", rowIdx, err)
			}
		}
		rowIdx++
	}

	return f.SetColWidth(sheet, "A", "E", 16)
}

func (e *Exporter) fillDivergenceSheet(f *excelize.File) error {
	const sheet = "Divergence"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create divergence sheet: %w", err)
	}

	headers := []string{"State", "MLI 2018", "MLI 2023", "Change"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, sc := range e.divergence.StateChanges {
		values := []interface{}{sc.State, sc.MLI2018, sc.MLI2023, sc.MLIChange}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write divergence row %d: %w", i+2, err)
			}
		}
	}

	return f.SetColWidth(sheet, "A", "D", 16)
}
