package pipeline

import "fmt"

// ValidationError reports a structural problem found while sampling the
// input CSV: a row whose column count differs from the configured shape.
// Row is 1-based, matching how operators count lines in the file.
type ValidationError struct {
	Path     string
	Row      int
	Expected int
	Got      int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("csv validation: row %d of %q has %d columns, expected %d",
		e.Row, e.Path, e.Got, e.Expected)
}
