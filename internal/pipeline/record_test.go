package pipeline

import (
	"testing"
	"time"
)

func TestParseRow_TypedValues(t *testing.T) {
	t.Parallel()

	row, err := parseRow([]string{
		"1001", "2024-03-01 10:00:00+00", "voice", "7", "1", "0", "60.5", "12.50000000", "2024-03",
	})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}

	if got := row[0].(int64); got != 1001 {
		t.Fatalf("customer_id = %v", row[0])
	}
	ts := row[1].(time.Time)
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("event_start_time = %v, want %v", ts, want)
	}
	if got := row[2].(string); got != "voice" {
		t.Fatalf("event_type = %v", row[2])
	}
	if got := row[6].(float64); got != 60.5 {
		t.Fatalf("duration = %v", row[6])
	}
	if row[7] == nil {
		t.Fatalf("charge parsed to nil")
	}
	if got := row[8].(string); got != "2024-03" {
		t.Fatalf("month = %v", row[8])
	}
}

func TestParseRow_EmptyFieldsBecomeNull(t *testing.T) {
	t.Parallel()

	row, err := parseRow([]string{"", "", "", "", "", "", "", "", ""})
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	for i, v := range row {
		if v != nil {
			t.Fatalf("field %d = %v, want nil", i, v)
		}
	}
}

func TestParseRow_TimestampLayouts(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"2024-03-01 10:00:00+00",
		"2024-03-01 10:00:00+02:00",
		"2024-03-01T10:00:00Z",
		"2024-03-01 10:00:00",
	} {
		if _, err := parseTimeField(in, "event_start_time"); err != nil {
			t.Fatalf("parseTimeField(%q): %v", in, err)
		}
	}

	if _, err := parseTimeField("03/01/2024", "event_start_time"); err == nil {
		t.Fatalf("expected error for unrecognized timestamp")
	}
}

// TestParseRow_TextNormalization: the composed and decomposed renderings of
// the same accented string must stage as identical bytes, otherwise the
// content hash would treat them as distinct events.
func TestParseRow_TextNormalization(t *testing.T) {
	t.Parallel()

	composed := parseTextField("café")
	decomposed := parseTextField("café")
	if composed.(string) != decomposed.(string) {
		t.Fatalf("NFC mismatch: %q vs %q", composed, decomposed)
	}
}

func TestParseRow_BadValuesError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		fields []string
	}{
		{"bad customer_id", []string{"x", "2024-03-01 10:00:00+00", "voice", "7", "1", "0", "60.5", "12.5", "2024-03"}},
		{"bad rate_plan_id", []string{"1", "2024-03-01 10:00:00+00", "voice", "x", "1", "0", "60.5", "12.5", "2024-03"}},
		{"bad duration", []string{"1", "2024-03-01 10:00:00+00", "voice", "7", "1", "0", "x", "12.5", "2024-03"}},
		{"bad charge", []string{"1", "2024-03-01 10:00:00+00", "voice", "7", "1", "0", "60.5", "x", "2024-03"}},
		{"bad timestamp", []string{"1", "yesterday", "voice", "7", "1", "0", "60.5", "12.5", "2024-03"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseRow(tc.fields); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
