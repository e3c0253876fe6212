// Command sheet-check parses a missions workbook the way an import would
// and prints what it reconstructs, without storing anything.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/garyjia/mission-expenses/internal/spreadsheet"
	"github.com/garyjia/mission-expenses/internal/tabular"
	"github.com/garyjia/mission-expenses/pkg/utils"
)

func main() {
	asJSON := flag.Bool("json", false, "print the import result as JSON")
	strict := flag.Bool("strict", false, "exit with status 2 when any warning is reported")
	verbose := flag.Bool("v", false, "log every warning to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] workbook.xlsx\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(64)
	}

	logger, err := utils.NewCLILogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path := flag.Arg(0)
	result, err := check(path)
	if err != nil {
		logger.Error("Workbook rejected", zap.String("path", path), zap.Error(err))
		os.Exit(1)
	}

	for _, w := range result.Warnings {
		logger.Debug("Import warning",
			zap.String("kind", string(w.Kind)),
			zap.String("sheet", w.Sheet),
			zap.Int("row", w.Row),
			zap.String("detail", w.Message))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	} else {
		err = printSummary(os.Stdout, result)
	}
	if err != nil {
		logger.Error("Failed to write output", zap.Error(err))
		os.Exit(1)
	}

	if *strict && len(result.Warnings) > 0 {
		os.Exit(2)
	}
}

func check(path string) (*tabular.ImportResult, error) {
	wb, err := spreadsheet.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tabular.NewParser().Parse(wb, nil)
}

func printSummary(out io.Writer, result *tabular.ImportResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tEMPLOYEE\tDATE\tEXPENSES\tTOTAL")
	for _, m := range result.Missions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			m.EmployeeCode, m.EmployeeName, m.MissionDate, len(m.Expenses), m.TotalAmount.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d missions, %d warnings\n", len(result.Missions), len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  %s\n", w)
	}
	return nil
}
