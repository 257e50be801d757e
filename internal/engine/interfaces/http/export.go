package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"scenario-cloud/internal/engine/domain"
	enginepostgres "scenario-cloud/internal/engine/infrastructure/postgres"
)

// BuildRunCSV renders a flat CSV dump of a run's facts.
func BuildRunCSV(run *enginepostgres.RunSummary, facts []domain.Fact) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"run_id", "sheet_code", "category", "period", "series", "value"}); err != nil {
		return nil, err
	}
	for _, fact := range facts {
		record := []string{
			run.ID,
			fact.SheetCode,
			string(fact.Category),
			fact.Period.String(),
			string(fact.Series),
			fact.Value.String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRunXLSX renders a workbook with a summary sheet plus one sheet per
// fact sheet code.
func BuildRunXLSX(run *enginepostgres.RunSummary, facts []domain.Fact) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	f.SetSheetName("Sheet1", summarySheet)

	_ = f.SetCellValue(summarySheet, "A1", "Scenario Engine Run")
	_ = f.SetCellValue(summarySheet, "A3", "Run")
	_ = f.SetCellValue(summarySheet, "B3", run.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Scenario")
	_ = f.SetCellValue(summarySheet, "B4", run.ScenarioID)
	_ = f.SetCellValue(summarySheet, "A5", "Started")
	_ = f.SetCellValue(summarySheet, "B5", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		_ = f.SetCellValue(summarySheet, "A6", "Finished")
		_ = f.SetCellValue(summarySheet, "B6", run.FinishedAt.Format(time.RFC3339))
	}
	_ = f.SetCellValue(summarySheet, "A7", "Facts")
	_ = f.SetCellValue(summarySheet, "B7", len(facts))

	rows := make(map[string]int)
	for _, fact := range facts {
		sheet := fact.SheetCode
		if _, ok := rows[sheet]; !ok {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, "A1", "Category")
			_ = f.SetCellValue(sheet, "B1", "Period")
			_ = f.SetCellValue(sheet, "C1", "Series")
			_ = f.SetCellValue(sheet, "D1", "Value")
			rows[sheet] = 1
		}
		rows[sheet]++
		row := rows[sheet]
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), string(fact.Category))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fact.Period.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(fact.Series))
		value, _ := fact.Value.Float64()
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRunPDF renders a one-page summary: run header plus annual totals per
// category and series.
func BuildRunPDF(run *enginepostgres.RunSummary, facts []domain.Fact) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Scenario Engine Run")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", run.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scenario: %d", run.ScenarioID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", run.StartedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if run.FinishedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Finished: %s", run.FinishedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	totals := annualTotals(facts)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "COGS", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "GP", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range totals {
		pdf.CellFormat(50, 6, row.category, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, row.revenue.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, row.cogs.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, row.gp.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type categoryTotal struct {
	category string
	revenue  decimal.Decimal
	cogs     decimal.Decimal
	gp       decimal.Decimal
}

// annualTotals sums the annual accrual sheets per category.
func annualTotals(facts []domain.Fact) []categoryTotal {
	byCategory := make(map[string]*categoryTotal)
	for _, fact := range facts {
		if fact.SheetCode != domain.FinanceSheet(domain.GranularityAnnual, fact.Category) {
			continue
		}
		total, ok := byCategory[string(fact.Category)]
		if !ok {
			total = &categoryTotal{category: string(fact.Category)}
			byCategory[string(fact.Category)] = total
		}
		switch fact.Series {
		case domain.SeriesRevenue:
			total.revenue = total.revenue.Add(fact.Value)
		case domain.SeriesCOGS:
			total.cogs = total.cogs.Add(fact.Value)
		case domain.SeriesGP:
			total.gp = total.gp.Add(fact.Value)
		}
	}

	out := make([]categoryTotal, 0, len(byCategory))
	for _, total := range byCategory {
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].category < out[j].category })
	return out
}
