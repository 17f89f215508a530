package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnknownColumn is returned when a projection names a column the
// customer table does not have
var ErrUnknownColumn = errors.New("unknown column")

// Customer table columns
var CustomerColumns = []string{"customer_id", "name", "email", "phone", "address", "birthdate", "age"}

// DefaultCustomerColumns are shown when no selection is made
var DefaultCustomerColumns = []string{"customer_id", "name", "email", "phone", "age"}

var customerCells = map[string]func(CustomerRow) string{
	"customer_id": func(r CustomerRow) string { return strconv.FormatInt(r.CustomerID, 10) },
	"name":        func(r CustomerRow) string { return r.Name },
	"email":       func(r CustomerRow) string { return r.Email },
	"phone":       func(r CustomerRow) string { return r.Phone },
	"address":     func(r CustomerRow) string { return r.Address },
	"birthdate": func(r CustomerRow) string {
		if r.Age == nil {
			return r.Birthdate
		}
		return r.Birth.Format("2006-01-02")
	},
	"age": func(r CustomerRow) string {
		if r.Age == nil {
			return ""
		}
		return strconv.Itoa(*r.Age)
	},
}

// Projection is a column subset of a table rendered as text cells
type Projection struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ValidateCustomerColumns checks every name against CustomerColumns
func ValidateCustomerColumns(columns []string) error {
	for _, c := range columns {
		if _, ok := customerCells[c]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// ProjectCustomers renders rows restricted to columns, in the given column
// order. An empty selection uses DefaultCustomerColumns.
func ProjectCustomers(rows []CustomerRow, columns []string) (*Projection, error) {
	if len(columns) == 0 {
		columns = DefaultCustomerColumns
	}
	if err := ValidateCustomerColumns(columns); err != nil {
		return nil, err
	}

	p := &Projection{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = customerCells[c](row)
		}
		p.Rows = append(p.Rows, cells)
	}
	return p, nil
}

// WriteCSV writes the header row followed by one record per row
func WriteCSV(w io.Writer, p *Projection) error {
	cw := csv.NewWriter(w)
	if err := writeRecord(w, cw, p.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range p.Rows {
		if err := writeRecord(w, cw, row); err != nil {
			return fmt.Errorf("failed to write csv rows: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// writeRecord writes one record. A record holding a single empty field is
// written as a quoted empty string, since encoding/csv would emit a blank
// line that readers skip.
func writeRecord(w io.Writer, cw *csv.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return cw.Write(record)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

// ReadCSV parses a file produced by WriteCSV
func ReadCSV(r io.Reader) (*Projection, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}
	return &Projection{Columns: records[0], Rows: records[1:]}, nil
}
