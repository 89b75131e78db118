// Command risk-report exports the stored per-scope priors to an Excel
// workbook for portfolio reviews.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"riskpulse/internal/risk"
	"riskpulse/internal/store"
)

func main() {
	storePath := flag.String("store", "data/priors.db", "path to the prior database")
	outPath := flag.String("out", "risk-report.xlsx", "output workbook path")
	flag.Parse()

	if _, err := os.Stat(*storePath); os.IsNotExist(err) {
		slog.Error("Prior database not found",
			"path", *storePath,
			"hint", "Run riskd first so priors get persisted")
		os.Exit(1)
	}

	priorStore, err := store.OpenSQLite(*storePath)
	if err != nil {
		slog.Error("Failed to open prior store", "error", err)
		os.Exit(1)
	}
	defer priorStore.Close()

	ctx := context.Background()
	scopes, err := priorStore.Scopes(ctx)
	if err != nil {
		slog.Error("Failed to list scopes", "error", err)
		os.Exit(1)
	}
	if len(scopes) == 0 {
		slog.Error("No priors stored yet", "path", *storePath)
		os.Exit(1)
	}
	slog.Info("Exporting priors", "scopes", len(scopes))

	if err := writeWorkbook(ctx, priorStore, scopes, *outPath); err != nil {
		slog.Error("Failed to write workbook", "error", err)
		os.Exit(1)
	}
	slog.Info("Report written", "path", *outPath)
}

const sheet = "Priors"

var header = []string{
	"Scope", "Technical", "Schedule", "Budget", "Quality", "Team",
	"Magnitude", "State", "Confidence", "Historical Accuracy", "Updated At",
}

func writeWorkbook(ctx context.Context, priorStore *store.SQLiteStore, scopes []string, outPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	for i, scope := range scopes {
		prior, found, err := priorStore.Load(ctx, scope)
		if err != nil {
			return fmt.Errorf("load prior for %q: %w", scope, err)
		}
		if !found {
			continue
		}

		d := prior.Dimensions
		state := risk.Classify(d)
		row := []interface{}{
			scope,
			d[risk.DimTechnical],
			d[risk.DimSchedule],
			d[risk.DimBudget],
			d[risk.DimQuality],
			d[risk.DimTeam],
			d.Magnitude(),
			string(state),
			risk.ConfidenceScore(d, prior.HistoricalAccuracy),
			prior.HistoricalAccuracy,
			prior.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(outPath)
}
