package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmpty indicates an upload without a header row.
var ErrEmpty = errors.New("no columns to parse from file")

// FileParseError wraps any failure to turn an upload into a Dataset.
type FileParseError struct {
	Name string
	Type FileType
	Err  error
}

func (e *FileParseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("error processing %s file %s: %v", e.Type, e.Name, e.Err)
	}
	return fmt.Sprintf("error processing %s file: %v", e.Type, e.Err)
}

func (e *FileParseError) Unwrap() error { return e.Err }

// Options controls loading.
type Options struct {
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, it is sniffed from the header line.
	Delimiter rune
	// Sheet selects an Excel sheet by name; empty means the first sheet.
	Sheet string
}

// Loader loads datasets with fixed options.
type Loader struct {
	Options Options
}

// Load parses r as typ.
func (l Loader) Load(r io.Reader, name string, typ FileType) (*Dataset, error) {
	return Load(r, name, typ, l.Options)
}

// LoadFile opens path and parses it as typ.
func LoadFile(path string, typ FileType, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileParseError{Name: filepath.Base(path), Type: typ, Err: err}
	}
	defer f.Close()
	return Load(f, filepath.Base(path), typ, opt)
}

// Load parses an upload into a Dataset. Every failure is a *FileParseError.
func Load(r io.Reader, name string, typ FileType, opt Options) (*Dataset, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch typ {
	case Excel:
		header, rows, err = readExcel(r, opt)
	default:
		header, rows, err = readCSV(r, name, opt)
	}
	if err != nil {
		return nil, &FileParseError{Name: name, Type: typ, Err: err}
	}
	return New(name, header, rows), nil
}

func readCSV(r io.Reader, name string, opt Options) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmpty
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			continue
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// sniffDelimiter uses the extension for .tsv and otherwise the most frequent
// of ',', ';' and tab on the header line.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func readExcel(r io.Reader, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmpty
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, fmt.Errorf("sheet '%s' not found; available sheets: %s", opt.Sheet, strings.Join(sheets, ", "))
		}
	}
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(all) == 0 || len(all[0]) == 0 {
		return nil, nil, ErrEmpty
	}
	rows := all[1:]
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}
	return all[0], rows, nil
}
