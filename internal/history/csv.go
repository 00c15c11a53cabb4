package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Columns is the header written by WriteCSV.
var Columns = []string{"operation", "operand_left", "operand_right", "result", "timestamp"}

// legacyLayout is the timestamp layout of files written by earlier releases.
const legacyLayout = "2006-01-02 15:04:05"

// aliases maps accepted header names to canonical columns.
var aliases = map[string]string{
	"operation":     "operation",
	"operand_left":  "operand_left",
	"a":             "operand_left",
	"operand_right": "operand_right",
	"b":             "operand_right",
	"result":        "result",
	"timestamp":     "timestamp",
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Operation,
			formatFloat(rec.Left),
			formatFloat(rec.Right),
			formatFloat(rec.Result),
			rec.Timestamp.Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses records written by WriteCSV. Columns are located by header
// name, so column order and the legacy a/b header names are accepted. An
// empty input yields no records.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(Columns))
	for i, name := range header {
		if col, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			index[col] = i
		}
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (Record, error) {
	field := func(col string) string {
		return strings.TrimSpace(row[index[col]])
	}

	var rec Record
	rec.Operation = strings.ToLower(field("operation"))
	if rec.Operation == "" {
		return Record{}, errors.New("empty operation")
	}

	var err error
	if rec.Left, err = strconv.ParseFloat(field("operand_left"), 64); err != nil {
		return Record{}, fmt.Errorf("operand_left: %w", err)
	}
	if rec.Right, err = strconv.ParseFloat(field("operand_right"), 64); err != nil {
		return Record{}, fmt.Errorf("operand_right: %w", err)
	}
	if rec.Result, err = strconv.ParseFloat(field("result"), 64); err != nil {
		return Record{}, fmt.Errorf("result: %w", err)
	}
	if rec.Timestamp, err = parseTimestamp(field("timestamp")); err != nil {
		return Record{}, fmt.Errorf("timestamp: %w", err)
	}
	return rec, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	return time.ParseInLocation(legacyLayout, s, time.Local)
}
