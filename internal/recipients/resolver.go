// Package recipients turns the request's recipient input, an uploaded
// spreadsheet/CSV or a manual JSON list, into an ordered list of candidate
// email addresses.
package recipients

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mkwiatek/mailfan/internal/attachment"
)

// Input methods accepted by Resolve.
const (
	MethodFile   = "file"
	MethodManual = "manual"
)

// Resolve produces the ordered recipient list for a send request.
// Row values without an "@" are discarded; header rows fall out the same way.
// The caller owns deletion of the list file.
func Resolve(method string, listFile *attachment.File, manualPayload string) ([]string, error) {
	var (
		emails []string
		err    error
	)

	switch method {
	case MethodFile:
		if listFile == nil {
			return nil, &ValidationError{Message: "no email list file uploaded"}
		}
		emails, err = fromFile(listFile)
		if err != nil {
			return nil, err
		}
	case MethodManual:
		if manualPayload == "" {
			return nil, &ValidationError{Message: "no manual emails provided"}
		}
		emails, err = fromManual(manualPayload)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ValidationError{Message: "unknown email method"}
	}

	if len(emails) == 0 {
		return nil, &ValidationError{Message: "no valid emails found"}
	}

	return emails, nil
}

// fromFile reads the first column of the uploaded document, picking the
// parser by file extension.
func fromFile(listFile *attachment.File) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(listFile.OriginalName))

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".xlsx", ".xls":
		rows, err = spreadsheetRows(listFile.Path)
	default:
		rows, err = csvRows(listFile.Path)
	}
	if err != nil {
		return nil, &ParseError{Filename: listFile.OriginalName, Err: err}
	}

	var emails []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		candidate := strings.TrimSpace(row[0])
		if strings.Contains(candidate, "@") {
			emails = append(emails, candidate)
		}
	}
	return emails, nil
}

// spreadsheetRows reads all rows of the first sheet.
func spreadsheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func csvRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// fromManual parses the manual entry payload, a JSON array of strings.
func fromManual(payload string) ([]string, error) {
	var entries []string
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, &ValidationError{Message: "invalid email format"}
	}

	var emails []string
	for _, entry := range entries {
		candidate := strings.TrimSpace(entry)
		if strings.Contains(candidate, "@") {
			emails = append(emails, candidate)
		}
	}
	return emails, nil
}
