package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/assessment-review/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator used for event payloads and task data.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with the custom tags registered.
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only and translates failures into
// ValidationErrors.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.structValidator.Struct(s)
	if err == nil {
		return nil
	}
	if errs := ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return err
}

// Validate is ValidateStruct plus the model level rules that tags cannot
// express.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if task, ok := s.(*models.Task); ok {
		if errs := validateTaskRules(task); len(errs) > 0 {
			return errs
		}
	}

	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("element_id", validateElementID)
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("css_color", validateCSSColor)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateElementID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value != "" && strings.TrimSpace(value) == value
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.QuestionMarker,
		models.QuestionOpen,
		models.QuestionCollection,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

var (
	hexColorRegex  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColorRegx = regexp.MustCompile(`^[a-z]{3,20}$`)
)

func validateCSSColor(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return hexColorRegex.MatchString(value) || namedColorRegx.MatchString(value)
}

// validateTaskRules checks rules spanning several questions: ids are unique
// within a task.
func validateTaskRules(task *models.Task) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(task.Questions))
	for _, q := range task.Questions {
		if seen[q.ID] {
			errs = append(errs, *NewValidationErrorWithRule("questions.id", "must be unique within a task", "unique", q.ID))
			continue
		}
		seen[q.ID] = true
	}

	return errs
}
