package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"membench/internal/benchmark"
)

var csvHeader = []string{"variant", "function", "bytes", "loops", "alignment", "elapsed", "rate_mib_s"}

// WriteCSV writes records with their rate as CSV, header first.
func WriteCSV(w io.Writer, records []benchmark.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Variant,
			r.Function,
			strconv.Itoa(r.Bytes),
			strconv.Itoa(r.Loops),
			strconv.Itoa(r.Alignment),
			strconv.FormatFloat(r.Elapsed, 'g', -1, 64),
			strconv.FormatFloat(r.Rate(), 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
