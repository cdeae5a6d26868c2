package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/unicode/norm"
)

// timestampLayouts are tried in order when parsing event_start_time.
// Postgres-style offsets come first since that is what billing exports emit.
var timestampLayouts = []string{
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseRow converts one raw 9-field CSV record into a typed COPY row aligned
// to schema.Columns. An empty field becomes SQL NULL for every column, the
// same contract as a COPY with an empty null marker. Unparseable values are
// errors: only row-width problems are tolerated upstream, anything else
// means corrupt data that must fail the load.
func parseRow(fields []string) ([]any, error) {
	row := make([]any, len(fields))

	var err error
	if row[0], err = parseIntField(fields[0], "customer_id"); err != nil {
		return nil, err
	}
	if row[1], err = parseTimeField(fields[1], "event_start_time"); err != nil {
		return nil, err
	}
	row[2] = parseTextField(fields[2])
	if row[3], err = parseIntField(fields[3], "rate_plan_id"); err != nil {
		return nil, err
	}
	if row[4], err = parseIntField(fields[4], "billing_flag_one"); err != nil {
		return nil, err
	}
	if row[5], err = parseIntField(fields[5], "billing_flag_two"); err != nil {
		return nil, err
	}
	if row[6], err = parseFloatField(fields[6], "duration"); err != nil {
		return nil, err
	}
	if row[7], err = parseNumericField(fields[7], "charge"); err != nil {
		return nil, err
	}
	row[8] = parseTextField(fields[8])

	return row, nil
}

func parseIntField(s, col string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", col, s, err)
	}
	return n, nil
}

func parseFloatField(s, col string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", col, s, err)
	}
	return f, nil
}

func parseTimeField(s, col string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q: unrecognized timestamp", col, s)
}

// parseTextField NFC-normalizes text so byte-variant renderings of the same
// logical string (decomposed vs precomposed accents) produce one event
// identity downstream.
func parseTextField(s string) any {
	if s == "" {
		return nil
	}
	return norm.NFC.String(s)
}

func parseNumericField(s, col string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", col, s, err)
	}
	return n, nil
}
