package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"certhub/certificate-portal/certificate-portal-backend/internal/render"
)

var (
	ErrMissingNameColumn = errors.New("spreadsheet has no recognized name column")
	ErrNoRecipients      = errors.New("spreadsheet contains no usable recipient rows")
)

var (
	nameColumns  = []string{"name", "Name", "NAME", "names", "Names", "NAMES"}
	emailColumns = []string{"email", "Email", "EMAIL", "emails", "Emails", "EMAILS", "e-mail", "E-mail", "E-MAIL"}
)

// Sheet is the parsed form of one uploaded spreadsheet.
type Sheet struct {
	Headers     []string `json:"headers"`
	NameColumn  string   `json:"nameColumn"`
	EmailColumn string   `json:"emailColumn,omitempty"`

	Recipients []render.Recipient `json:"recipients"`
}

// Read parses the spreadsheet at path into an ordered recipient list.
// xlsx files are read with excelize, csv with the standard reader. The
// first row is the header row. Rows whose trimmed name is empty are
// skipped; a sheet with none left is ErrNoRecipients.
func Read(path string) (*Sheet, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcel(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

func fromRows(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecipients
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	nameCol := findColumn(headers, nameColumns)
	if nameCol < 0 {
		return nil, ErrMissingNameColumn
	}
	emailCol := findColumn(headers, emailColumns)

	sheet := &Sheet{
		Headers:    headers,
		NameColumn: headers[nameCol],
	}
	if emailCol >= 0 {
		sheet.EmailColumn = headers[emailCol]
	}

	for _, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			fields[h] = strings.TrimSpace(row[i])
		}
		name := ""
		if nameCol < len(row) {
			name = strings.TrimSpace(row[nameCol])
		}
		if name == "" {
			continue
		}
		r := render.Recipient{Name: name, Fields: fields}
		if emailCol >= 0 && emailCol < len(row) {
			r.Email = strings.TrimSpace(row[emailCol])
		}
		sheet.Recipients = append(sheet.Recipients, r)
	}

	if len(sheet.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	return sheet, nil
}

// findColumn matches headers against the accepted spellings, exact match
// first, then a case-insensitive pass.
func findColumn(headers, accepted []string) int {
	for _, want := range accepted {
		for i, h := range headers {
			if h == want {
				return i
			}
		}
	}
	for i, h := range headers {
		for _, want := range accepted {
			if strings.EqualFold(h, want) {
				return i
			}
		}
	}
	return -1
}
