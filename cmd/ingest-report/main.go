// ingest-report runs one ingestion synchronously from the command line:
// either against a local export file (-file) or by downloading a fresh
// export from the lab portal with the given search parameters.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... go run ./cmd/ingest-report -file ./report.xlsx
//   INTERTEK_API_ENABLED=true INTERTEK_API_USERNAME=... go run ./cmd/ingest-report -search TRANSPORTES
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/etl"
	"github.com/tribodata/oilwatch_backend/models"
)

func main() {
	filePath := flag.String("file", "", "ingest a local export file instead of downloading")
	searchText := flag.String("search", "", "search text for the export download")
	labNumber := flag.String("lab", "", "lab number filter for the export download")
	pageSize := flag.Int("page-size", 50, "page size for the export download")
	fileType := flag.Int("file-type", etl.FileTypeXlsx, "export file type (1=csv, 2=pdf, 3=xlsx)")
	actor := flag.String("actor", "cli", "audit identity recorded on created rows")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if *filePath != "" {
		summary, err := etl.IngestReportFile(ctx, db, *filePath, 0, *actor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ingestion failed: %v\n", err)
			os.Exit(1)
		}
		printSummary(summary)
		return
	}

	params := etl.RunParams{
		SearchText: *searchText,
		LabNumber:  *labNumber,
		PageSize:   *pageSize,
		FileType:   *fileType,
	}
	run, err := etl.CreateRun(ctx, db, params, models.EtlTriggeredManual, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create run: %v\n", err)
		os.Exit(1)
	}

	if err := etl.ExecuteRun(ctx, db, run); err != nil {
		fmt.Fprintf(os.Stderr, "run %d failed: %v\n", run.ID, err)
		os.Exit(1)
	}

	var finished models.EtlRun
	if err := db.WithContext(ctx).Take(&finished, run.ID).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to reload run %d: %v\n", run.ID, err)
		os.Exit(1)
	}
	fmt.Printf("Run %d finished: status=%s created=%d skipped=%d errors=%d\n",
		finished.ID, finished.Status, finished.RowsCreated, finished.RowsSkipped, finished.ErrorCount)
}

func printSummary(summary *etl.ImportSummary) {
	fmt.Printf("Created: %d, Skipped: %d, Errors: %d\n", summary.Created, summary.Skipped, len(summary.Errors))
	for _, e := range summary.Errors {
		fmt.Println("  " + e)
	}
}
