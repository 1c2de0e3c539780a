package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tapline/visitplanner/internal/model"
)

// ReadXLSX reads the first sheet of an XLSX file: header row plus data
// rows as string slices.
func ReadXLSX(path string) (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("ingest: %s has no sheets", filepath.Base(path))
	}

	for i, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	return header, rows, nil
}

// ReadCSV reads a CSV stream: header row plus data rows. Field counts may
// vary per row.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first := true
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, eris.Wrap(readErr, "ingest: read csv")
		}
		if first {
			header = record
			first = false
			continue
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// ReadFile dispatches on the file extension (.xlsx or .csv).
func ReadFile(path string) (header []string, rows [][]string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "ingest: open csv")
		}
		defer f.Close()
		return ReadCSV(f)
	}
	return nil, nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
}

// FileSpec pairs a path with its list configuration for batch import.
type FileSpec struct {
	Path   string
	Config ListConfig
}

// ImportFiles parses several list files concurrently and returns their
// records in input order.
func ImportFiles(ctx context.Context, specs []FileSpec) ([]model.Pub, error) {
	results := make([][]model.Pub, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "ingest: import cancelled")
			}
			header, rows, err := ReadFile(spec.Path)
			if err != nil {
				return err
			}
			results[i] = MapRows(header, rows, spec.Config)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Pub
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}
