// Package taskdata loads the task a review session is built from, either as a
// JSON document or as an Excel workbook, and exports tasks back to
// workbooks.
package taskdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/SAP-F-2025/assessment-review/internal/utils"
	"github.com/SAP-F-2025/assessment-review/internal/validator"
)

// Loader decodes and validates tasks.
type Loader struct {
	validator *validator.Validator
	logger    utils.Logger
}

func NewLoader(v *validator.Validator, logger utils.Logger) *Loader {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Loader{
		validator: v,
		logger:    logger.With("component", "taskdata"),
	}
}

// LoadFile picks the decoder from the file extension: .json, or .xlsx for a
// workbook.
func (l *Loader) LoadFile(path string) (*models.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return l.DecodeJSON(f)
	case ".xlsx":
		return l.ImportExcel(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// DecodeJSON reads one task document. Unknown fields are rejected so typos in
// hand written fixtures surface early.
func (l *Loader) DecodeJSON(r io.Reader) (*models.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read task: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var task models.Task
	if err := decoder.Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	if err := l.validator.Validate(&task); err != nil {
		return nil, err
	}

	l.logWarnings(&task)
	l.logger.Info("Task loaded", "task_id", task.ID, "questions", len(task.Questions), "format", "json")
	return &task, nil
}

func (l *Loader) logWarnings(task *models.Task) {
	for _, w := range Check(task) {
		l.logger.Warn("Task check", "task_id", task.ID, "question_id", w.QuestionID, "warning", w.Message)
	}
}
