package db

import "strconv"

// RowCount is an optional rows-affected result. Some drivers or statement
// shapes cannot report how many rows a DML statement touched; modeling that
// explicitly keeps "zero rows" distinct from "count not reported".
type RowCount struct {
	n     int64
	known bool
}

// Count returns a known row count.
func Count(n int64) RowCount { return RowCount{n: n, known: true} }

// Unknown returns the sentinel for an unavailable rows-affected signal.
func Unknown() RowCount { return RowCount{} }

// Value returns the count and whether it is known. When unknown, the count
// is zero and must not be interpreted.
func (c RowCount) Value() (int64, bool) { return c.n, c.known }

// Known reports whether the backend supplied a rows-affected signal.
func (c RowCount) Known() bool { return c.known }

// String renders the count for logs: the decimal value, or "unknown".
func (c RowCount) String() string {
	if !c.known {
		return "unknown"
	}
	return strconv.FormatInt(c.n, 10)
}
