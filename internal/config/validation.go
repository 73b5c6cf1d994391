package config

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/simonhull/vcc/merge"
)

// ValidationError describes one problem with a manifest.
type ValidationError struct {
	Field      string // field path (e.g. "mappings[0].target")
	Message    string // error message
	Suggestion string // helpful suggestion (optional)
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error at %s: %s", e.Field, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error returns all validation errors formatted with clear separation
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("found %d validation errors:\n", len(e)))
	for i, err := range e {
		buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return buf.String()
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("syncmode", func(fl validator.FieldLevel) bool {
			_, err := merge.ParseSyncMode(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks struct constraints and the rules that span fields. All
// problems are reported at once as ValidationErrors.
func (m *Manifest) Validate() error {
	var errs ValidationErrors

	if err := structValidator().Struct(m); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate manifest: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, translate(fe))
		}
	}

	errs = append(errs, m.validateLanguages()...)
	errs = append(errs, m.validateMappings()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m *Manifest) validateLanguages() ValidationErrors {
	var errs ValidationErrors
	for i, lang := range m.Languages {
		if strings.ContainsAny(lang.Delimiter, "<\n") {
			errs = append(errs, ValidationError{
				Field:      fmt.Sprintf("languages[%d].delimiter", i),
				Message:    fmt.Sprintf("delimiter %q cannot contain '<' or a newline", lang.Delimiter),
				Suggestion: "use the language's line-comment marker, e.g. \"//\" or \"#\"",
			})
		}
	}
	return errs
}

func (m *Manifest) validateMappings() ValidationErrors {
	var errs ValidationErrors
	targets := make(map[string]int)
	for i, mp := range m.Mappings {
		if mp.Generated == "" || mp.Target == "" {
			continue
		}
		field := fmt.Sprintf("mappings[%d]", i)
		if m.Resolve(mp.Generated) == m.Resolve(mp.Target) {
			errs = append(errs, ValidationError{
				Field:      field,
				Message:    fmt.Sprintf("generated and target are the same path %q", mp.Target),
				Suggestion: "generate into a separate directory and reconcile into the source tree",
			})
		}
		target := m.Resolve(mp.Target)
		if j, dup := targets[target]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".target",
				Message: fmt.Sprintf("target %q is already used by mappings[%d]", mp.Target, j),
			})
			continue
		}
		targets[target] = i
	}
	return errs
}

// translate turns a validator field error into a ValidationError with a
// manifest-style field path.
func translate(fe validator.FieldError) ValidationError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	ve := ValidationError{Field: field}
	switch fe.Tag() {
	case "required":
		ve.Message = "is required"
	case "min":
		ve.Message = fmt.Sprintf("needs at least %s entries", fe.Param())
	case "startswith":
		ve.Message = fmt.Sprintf("%q must start with %q", fe.Value(), fe.Param())
		ve.Suggestion = fmt.Sprintf("write extensions like %q", ".h")
	case "syncmode":
		ve.Message = fmt.Sprintf("unknown sync mode %q", fe.Value())
		ve.Suggestion = "use one of FORCE, FULL, DEMAND, SKIP"
	case "oneof":
		ve.Message = fmt.Sprintf("%q is not one of: %s", fe.Value(), fe.Param())
	case "excludesall":
		ve.Message = fmt.Sprintf("%q cannot contain any of %q", fe.Value(), fe.Param())
		ve.Suggestion = "use a plain identifier such as \"vcc\""
	case "gte", "lte":
		ve.Message = fmt.Sprintf("%v is out of range (%s %s)", fe.Value(), fe.Tag(), fe.Param())
	default:
		ve.Message = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return ve
}
