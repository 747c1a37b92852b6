// Package exporter writes computed panels to disk, one CSV per ticker and
// optionally a single workbook with one sheet per ticker.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"VnPanel/internal/panel"
)

const dateLayout = "2006-01-02"

// Exporter writes panels under Dir.
type Exporter struct {
	Dir string
}

// New creates an exporter rooted at dir.
func New(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// Header returns the CSV header for p: Date, Ticker, then every value column.
func Header(p *panel.Panel) []string {
	return append([]string{"Date", "Ticker"}, p.Columns()...)
}

// FormatValue renders v in shortest form; NaN becomes an empty cell.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WritePanelCSV writes every row of p to w.
func WritePanelCSV(w io.Writer, p *panel.Panel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(p)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cols := p.Columns()
	record := make([]string, len(cols)+2)
	for i := 0; i < p.Len(); i++ {
		record[0] = p.Date(i).Format(dateLayout)
		record[1] = p.Ticker(i)
		for j, name := range cols {
			record[j+2] = FormatValue(p.Value(name, i))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Path returns the CSV path used for ticker.
func (e *Exporter) Path(ticker string) string {
	return filepath.Join(e.Dir, ticker+".csv")
}

// WriteCSV writes each ticker of p to Dir/{TICKER}.csv and returns the
// paths in ticker order.
func (e *Exporter) WriteCSV(p *panel.Panel) ([]string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	var paths []string
	for _, ticker := range p.Tickers() {
		path := e.Path(ticker)
		if err := writeFile(path, p.Slice(ticker)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, p *panel.Panel) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := WritePanelCSV(f, p); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// WriteXLSX saves one workbook at name (relative to Dir) with a sheet per
// ticker of p.
func (e *Exporter) WriteXLSX(name string, p *panel.Panel) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	header := Header(p)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	cols := p.Columns()

	for n, ticker := range p.Tickers() {
		sheet := ticker
		if len(sheet) > excelize.MaxSheetNameLength {
			sheet = sheet[:excelize.MaxSheetNameLength]
		}
		if n == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("new sheet %s: %w", sheet, err)
		}

		sw, err := f.NewStreamWriter(sheet)
		if err != nil {
			return "", fmt.Errorf("stream sheet %s: %w", sheet, err)
		}
		if err := sw.SetRow("A1", headerRow); err != nil {
			return "", err
		}
		sub := p.Slice(ticker)
		for i := 0; i < sub.Len(); i++ {
			row := make([]interface{}, len(cols)+2)
			row[0] = sub.Date(i).Format(dateLayout)
			row[1] = ticker
			for j, name := range cols {
				if v := sub.Value(name, i); !math.IsNaN(v) {
					row[j+2] = v
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := sw.SetRow(cell, row); err != nil {
				return "", fmt.Errorf("sheet %s row %d: %w", sheet, i, err)
			}
		}
		if err := sw.Flush(); err != nil {
			return "", fmt.Errorf("flush sheet %s: %w", sheet, err)
		}
	}

	path := filepath.Join(e.Dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	log.Printf("[INFO] workbook written: %s (%d sheets)", path, len(p.Tickers()))
	return path, nil
}
