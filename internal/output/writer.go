// Package output writes the run result CSVs: processed premises, error rows,
// and the duplicate log.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/premises-cli/internal/model"
)

// Writer writes a RunResult to CSV files under a directory. Files with no
// rows are skipped.
type Writer struct {
	Dir            string
	ProcessedFile  string
	ErrorsFile     string
	DuplicatesFile string
}

// NewWriter returns a Writer with the default file names.
func NewWriter(dir string) *Writer {
	return &Writer{
		Dir:            dir,
		ProcessedFile:  "processed_premises.csv",
		ErrorsFile:     "errors.csv",
		DuplicatesFile: "duplicates.csv",
	}
}

var errorHeader = []string{"name", "address", "city", "state", "postal_code", "error_reason"}

var duplicateHeader = []string{
	"source_name", "source_address", "standardized_name",
	"matched_premise_id", "confidence_score", "reason",
}

// Write writes the three output files concurrently.
func (w *Writer) Write(result *model.RunResult) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir %s", w.Dir)
	}

	var g errgroup.Group

	g.Go(func() error {
		if len(result.Processed) == 0 {
			zap.L().Info("no processed rows to write")
			return nil
		}
		rows := make([][]string, 0, len(result.Processed))
		for _, rec := range result.Processed {
			rows = append(rows, rec.Record())
		}
		return w.writeCSV(w.ProcessedFile, model.OutputHeader, rows)
	})

	g.Go(func() error {
		if len(result.Errors) == 0 {
			return nil
		}
		rows := make([][]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			rows = append(rows, []string{
				e.Name, e.Address, e.City, e.State, e.PostalCode, e.Reason,
			})
		}
		return w.writeCSV(w.ErrorsFile, errorHeader, rows)
	})

	g.Go(func() error {
		if len(result.Duplicates) == 0 {
			return nil
		}
		rows := make([][]string, 0, len(result.Duplicates))
		for _, d := range result.Duplicates {
			rows = append(rows, []string{
				d.SourceName, d.SourceAddress, d.StandardizedName,
				strconv.FormatInt(d.MatchedPremiseID, 10),
				strconv.Itoa(d.ConfidenceScore),
				d.Reason,
			})
		}
		return w.writeCSV(w.DuplicatesFile, duplicateHeader, rows)
	})

	return g.Wait()
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return eris.Wrapf(err, "output: write header %s", path)
	}
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "output: write rows %s", path)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "output: flush %s", path)
	}

	zap.L().Info("wrote output file",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return f.Close()
}
