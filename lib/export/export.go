package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"ucampus-grades/lib/gradereport"
	"ucampus-grades/lib/telemetry"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("ucampus.lib.export")

var ErrWrite = errors.New("failed to write output file")

const sheetName = "Notas"

type encoder func(w io.Writer, header, row []string) error

func encoderFor(path string) encoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeXlsx
	default:
		return writeCsv
	}
}

// Persist replaces the file at `path` with the layout's header and a single
// row for `record`. Paths ending in .xlsx get a spreadsheet, anything else
// gets csv. An empty record leaves the file system untouched.
func Persist(ctx context.Context, record gradereport.StudentRecord, layout gradereport.Layout, path string) (written bool, err error) {
	ctx, span := tracer.Start(ctx, "Persist")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	if record.Empty() {
		slog.InfoContext(ctx, "no course data, skipping write", "path", path)
		return false, nil
	}

	err = replaceFile(path, func(w io.Writer) error {
		return encoderFor(path)(w, layout.Header(), layout.Row(record))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist record")
		return false, fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	return true, nil
}

// replaceFile writes into a temporary file next to `path` and renames it
// over `path` once complete.
func replaceFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = write(tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeCsv(w io.Writer, header, row []string) error {
	writer := csv.NewWriter(w)
	err := writer.Write(header)
	if err != nil {
		return err
	}
	err = writer.Write(row)
	if err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeXlsx(w io.Writer, header, row []string) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName(f.GetSheetName(0), sheetName)
	if err != nil {
		return err
	}

	for r, values := range [][]string{header, row} {
		for c, value := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			err = f.SetCellValue(sheetName, cell, value)
			if err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
