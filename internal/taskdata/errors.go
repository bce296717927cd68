package taskdata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported task file format")
	ErrNotExportable     = errors.New("task cannot be exported to a workbook")
)

// ImportError describes one rejected cell or row of a workbook. Row is 1-based
// like the sheet itself; row 1 is the header.
type ImportError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e ImportError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, %s: %s", e.Sheet, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Message)
}

// ImportErrors collects every problem found in one workbook.
type ImportErrors []ImportError

func (ie ImportErrors) Error() string {
	var messages []string
	for _, e := range ie {
		messages = append(messages, e.Error())
	}
	return strings.Join(messages, "; ")
}
