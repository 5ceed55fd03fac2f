package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"pairbench/internal/loadtest"
)

// WriteSamplesCSV exports raw samples for spreadsheet analysis.
// Schema: timestamp,backend,query_type,success,elapsed_ms,records,error
func WriteSamplesCSV(samples []loadtest.Sample, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"timestamp", "backend", "query_type", "success", "elapsed_ms", "records", "error"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		successStr := "true"
		if !s.Success {
			successStr = "false"
		}
		record := []string{
			fmt.Sprintf("%d", s.Started.UnixMilli()),
			s.Backend,
			string(s.Query),
			successStr,
			fmt.Sprintf("%.3f", float64(s.Elapsed.Microseconds())/1000.0),
			fmt.Sprintf("%d", s.Records),
			s.Reason,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
