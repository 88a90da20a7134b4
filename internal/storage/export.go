package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Samples int         `json:"samples"`
	Columns []string    `json:"columns"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, times []float64, states [][]float64) error {
	data := ExportData{
		Meta:    meta,
		Samples: len(times),
		Columns: meta.Columns,
		Times:   times,
		States:  states,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes a "time" column followed by one column per state
// component. Values use the shortest representation that round-trips.
func WriteCSV(w io.Writer, columns []string, times []float64, states [][]float64) error {
	cw := csv.NewWriter(w)

	if len(columns) == 0 && len(states) > 0 {
		columns = defaultColumns(len(states[0]))
	}
	header := append([]string{"time"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i := range states {
		row = row[:0]
		row = append(row, strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, v := range states[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
