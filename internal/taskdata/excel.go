package taskdata

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-review/internal/models"
)

// Workbook layout. Every sheet has a header row; header names are matched
// case-insensitively and columns may come in any order.
const (
	SheetTask      = "Task"
	SheetImages    = "Images"
	SheetQuestions = "Questions"
	SheetMarks     = "Marks"
	SheetValues    = "Values"
	SheetOverlays  = "Overlays"
)

var sheetHeaders = map[string][]string{
	SheetTask:      {"ID", "Module ID", "Title"},
	SheetImages:    {"ID", "Title"},
	SheetQuestions: {"ID", "Type", "Title", "Image ID", "Color", "Linked Question ID"},
	SheetMarks:     {"Question ID", "ID", "User ID", "Image ID", "Geometry"},
	SheetValues:    {"Question ID", "Value"},
	SheetOverlays:  {"Question ID", "ID", "Image ID"},
}

var sheetOrder = []string{SheetTask, SheetImages, SheetQuestions, SheetMarks, SheetValues, SheetOverlays}

// sheet is one parsed sheet: data rows plus a column lookup.
type sheet struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func (s *sheet) cell(row []string, column string) string {
	i, ok := s.columns[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowNumber converts a data row index to the row number shown in Excel.
func rowNumber(i int) int {
	return i + 2
}

// ImportExcel reads a task workbook. Task and Questions are required; the
// other sheets may be missing. Every problem found is reported at once.
func (l *Loader) ImportExcel(r io.Reader) (*models.Task, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var problems ImportErrors
	sheets := make(map[string]*sheet, len(sheetOrder))
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	for _, name := range sheetOrder {
		if !present[name] {
			if name == SheetTask || name == SheetQuestions {
				problems = append(problems, ImportError{Sheet: name, Row: 1, Message: "sheet is missing"})
			}
			continue
		}
		s, errs := readSheet(f, name)
		problems = append(problems, errs...)
		if s != nil {
			sheets[name] = s
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}

	task, problems := buildTask(sheets)
	if len(problems) > 0 {
		return nil, problems
	}
	if err := l.validator.Validate(task); err != nil {
		return nil, err
	}

	l.logWarnings(task)
	l.logger.Info("Task loaded", "task_id", task.ID, "questions", len(task.Questions), "format", "xlsx")
	return task, nil
}

func readSheet(f *excelize.File, name string) (*sheet, ImportErrors) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, ImportErrors{{Sheet: name, Row: 1, Message: fmt.Sprintf("failed to read rows: %v", err)}}
	}
	if len(rows) == 0 {
		return nil, ImportErrors{{Sheet: name, Row: 1, Message: "header row is missing"}}
	}

	s := &sheet{name: name, columns: make(map[string]int)}
	for i, header := range rows[0] {
		s.columns[strings.ToLower(strings.TrimSpace(header))] = i
	}

	var problems ImportErrors
	for _, header := range sheetHeaders[name] {
		if _, ok := s.columns[strings.ToLower(header)]; !ok {
			problems = append(problems, ImportError{Sheet: name, Row: 1, Column: header, Message: "column is missing"})
		}
	}

	for _, row := range rows[1:] {
		if !isBlank(row) {
			s.rows = append(s.rows, row)
		} else {
			// Keep numbering aligned with the sheet.
			s.rows = append(s.rows, nil)
		}
	}
	return s, problems
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func buildTask(sheets map[string]*sheet) (*models.Task, ImportErrors) {
	var problems ImportErrors
	task := &models.Task{}

	meta := sheets[SheetTask]
	var metaRows int
	for i, row := range meta.rows {
		if row == nil {
			continue
		}
		metaRows++
		if metaRows > 1 {
			problems = append(problems, ImportError{Sheet: meta.name, Row: rowNumber(i), Message: "only one task per workbook"})
			continue
		}
		task.ID = meta.cell(row, "ID")
		task.ModuleID = meta.cell(row, "Module ID")
		task.Title = meta.cell(row, "Title")
	}
	if metaRows == 0 {
		problems = append(problems, ImportError{Sheet: meta.name, Row: 2, Message: "task row is missing"})
	}

	if images := sheets[SheetImages]; images != nil {
		for _, row := range images.rows {
			if row == nil {
				continue
			}
			task.Images = append(task.Images, models.Image{
				ID:    images.cell(row, "ID"),
				Title: images.cell(row, "Title"),
			})
		}
	}

	questions := sheets[SheetQuestions]
	byID := make(map[string]*models.Question)
	for _, row := range questions.rows {
		if row == nil {
			continue
		}
		q := models.Question{
			ID:      questions.cell(row, "ID"),
			Type:    models.QuestionType(strings.ToLower(questions.cell(row, "Type"))),
			Title:   questions.cell(row, "Title"),
			ImageID: questions.cell(row, "Image ID"),
			Color:   questions.cell(row, "Color"),
		}
		if linked := questions.cell(row, "Linked Question ID"); linked != "" {
			q.LinkedMarkerQuestionID = &linked
		}
		task.Questions = append(task.Questions, q)
	}
	// Pointers are taken after the slice stops growing.
	for i := range task.Questions {
		q := &task.Questions[i]
		if _, ok := byID[q.ID]; !ok {
			byID[q.ID] = q
		}
	}

	owner := func(s *sheet, i int, row []string) *models.Question {
		id := s.cell(row, "Question ID")
		q, ok := byID[id]
		if !ok {
			problems = append(problems, ImportError{
				Sheet: s.name, Row: rowNumber(i), Column: "Question ID",
				Message: "unknown question", Value: id,
			})
			return nil
		}
		return q
	}

	if marks := sheets[SheetMarks]; marks != nil {
		for i, row := range marks.rows {
			if row == nil {
				continue
			}
			q := owner(marks, i, row)
			if q == nil {
				continue
			}
			mark := models.Mark{
				ID:           marks.cell(row, "ID"),
				QuestionID:   q.ID,
				ImageID:      marks.cell(row, "Image ID"),
				RespondentID: marks.cell(row, "User ID"),
			}
			if mark.ImageID == "" {
				mark.ImageID = q.ImageID
			}
			if geometry := marks.cell(row, "Geometry"); geometry != "" {
				if !json.Valid([]byte(geometry)) {
					problems = append(problems, ImportError{
						Sheet: marks.name, Row: rowNumber(i), Column: "Geometry",
						Message: "must be valid JSON", Value: geometry,
					})
					continue
				}
				mark.Geometry = datatypes.JSON(geometry)
			}
			q.Marks = append(q.Marks, mark)
		}
	}

	if values := sheets[SheetValues]; values != nil {
		for i, row := range values.rows {
			if row == nil {
				continue
			}
			q := owner(values, i, row)
			if q == nil {
				continue
			}
			q.Values = append(q.Values, valueJSON(values.cell(row, "Value")))
		}
	}

	if overlays := sheets[SheetOverlays]; overlays != nil {
		grouped := make(map[string][]models.Overlay)
		var order []string
		for i, row := range overlays.rows {
			if row == nil {
				continue
			}
			q := owner(overlays, i, row)
			if q == nil {
				continue
			}
			if _, ok := grouped[q.ID]; !ok {
				order = append(order, q.ID)
			}
			grouped[q.ID] = append(grouped[q.ID], models.Overlay{
				ID:      overlays.cell(row, "ID"),
				ImageID: overlays.cell(row, "Image ID"),
			})
		}
		for _, id := range order {
			raw, err := json.Marshal(grouped[id])
			if err != nil {
				problems = append(problems, ImportError{Sheet: overlays.name, Row: 1, Message: err.Error()})
				continue
			}
			byID[id].Overlays = datatypes.JSON(raw)
		}
	}

	return task, problems
}

// valueJSON keeps JSON cells as they are and turns anything else into a JSON
// string, so plain text answers need no quoting in the sheet.
func valueJSON(cell string) datatypes.JSON {
	if cell != "" && json.Valid([]byte(cell)) {
		return datatypes.JSON(cell)
	}
	raw, _ := json.Marshal(cell)
	return datatypes.JSON(raw)
}

// ExportExcel writes task in the layout ImportExcel reads.
func ExportExcel(task *models.Task) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with one default sheet; it becomes the Task sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetTask); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for _, name := range sheetOrder[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	rows := map[string][][]any{
		SheetTask: {{task.ID, task.ModuleID, task.Title}},
	}
	for _, img := range task.Images {
		rows[SheetImages] = append(rows[SheetImages], []any{img.ID, img.Title})
	}
	for _, q := range task.Questions {
		linked := ""
		if q.LinkedMarkerQuestionID != nil {
			linked = *q.LinkedMarkerQuestionID
		}
		rows[SheetQuestions] = append(rows[SheetQuestions],
			[]any{q.ID, string(q.Type), q.Title, q.ImageID, q.Color, linked})

		for _, mark := range q.Marks {
			rows[SheetMarks] = append(rows[SheetMarks],
				[]any{q.ID, mark.ID, mark.RespondentID, mark.ImageID, string(mark.Geometry)})
		}
		for _, value := range q.Values {
			rows[SheetValues] = append(rows[SheetValues], []any{q.ID, string(value)})
		}
		if len(q.Overlays) == 0 {
			continue
		}
		var overlays []models.Overlay
		if err := json.Unmarshal(q.Overlays, &overlays); err != nil {
			return nil, fmt.Errorf("%w: question %s: overlays are not a list", ErrNotExportable, q.ID)
		}
		for _, o := range overlays {
			rows[SheetOverlays] = append(rows[SheetOverlays], []any{q.ID, o.ID, o.ImageID})
		}
	}

	for _, name := range sheetOrder {
		headers := make([]any, 0, len(sheetHeaders[name]))
		for _, h := range sheetHeaders[name] {
			headers = append(headers, h)
		}
		if err := f.SetSheetRow(name, "A1", &headers); err != nil {
			return nil, fmt.Errorf("failed to write Excel header: %w", err)
		}
		for i, row := range rows[name] {
			cell, err := excelize.CoordinatesToCellName(1, rowNumber(i))
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write Excel row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
