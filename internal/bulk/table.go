package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/YannKr/certgen/internal/model"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// Row is one data row of the input table. Line is the 1-based line number
// in the CSV, counting the header.
type Row struct {
	Line    int
	Request model.CertificateRequest
}

// RowError records a row that was skipped or failed to render.
type RowError struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Job is a parsed bulk request, consumed once by Runner.Run.
type Job struct {
	ID      string
	Rows    []Row
	Skipped []RowError
}

// ParseTable reads a CSV with a header row containing name, topic and date
// (any order, case-insensitive, extra columns ignored). A missing column is
// always fatal. Malformed rows are fatal unless lenient is set, in which
// case they are recorded in Job.Skipped.
func ParseTable(r io.Reader, lenient bool) (*Job, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}
	width := 0
	for _, i := range idx {
		width = max(width, i+1)
	}

	job := &Job{ID: uuid.New().String()}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		switch {
		case errors.As(err, &perr):
			if !lenient {
				return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
			}
			job.Skipped = append(job.Skipped, RowError{Line: perr.StartLine, Reason: perr.Err.Error()})
			continue
		case err != nil:
			return nil, fmt.Errorf("read table: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) < width {
			if !lenient {
				return nil, fmt.Errorf("%w: line %d has %d fields, want at least %d",
					ErrMalformedRow, line, len(record), width)
			}
			job.Skipped = append(job.Skipped, RowError{
				Line:   line,
				Reason: fmt.Sprintf("%d fields, want at least %d", len(record), width),
			})
			continue
		}

		job.Rows = append(job.Rows, Row{
			Line: line,
			Request: model.CertificateRequest{
				Name:  strings.TrimSpace(record[idx[model.FieldName]]),
				Topic: strings.TrimSpace(record[idx[model.FieldTopic]]),
				Date:  strings.TrimSpace(record[idx[model.FieldDate]]),
			},
		})
	}
	return job, nil
}

func columnIndex(header []string) (map[model.Field]int, error) {
	idx := make(map[model.Field]int, len(model.DrawOrder))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		f := model.Field(strings.ToLower(strings.TrimSpace(h)))
		if _, seen := idx[f]; seen {
			continue
		}
		idx[f] = i
	}

	var missing []string
	for _, f := range model.DrawOrder {
		if _, ok := idx[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
