package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/trackly/internal/constants"
	"github.com/julianstephens/trackly/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TrackerInput is what the add and edit flows collect before a tracker is
// stored.
type TrackerInput struct {
	Name     string           `validate:"title"`
	ColorHex string           `validate:"required,hex_color"`
	Emoji    string           `validate:"required"`
	Schedule []models.Weekday `validate:"dive,min=1,max=7"`
	Category string           `validate:"title"`
}

// CategoryInput is a category title as typed by the user.
type CategoryInput struct {
	Title string `validate:"title"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("title", validateTitle)
	return v
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

// validateTitle accepts non-blank text of at most MaxTitleLength runes
// after trimming.
func validateTitle(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s != "" && utf8.RuneCountInString(s) <= constants.MaxTitleLength
}

// ValidateTracker checks a tracker form and reports every invalid field.
func ValidateTracker(in TrackerInput) error {
	return describe(validate.Struct(in))
}

// ValidateCategory checks a category title.
func ValidateCategory(title string) error {
	return describe(validate.Struct(CategoryInput{Title: title}))
}

// ValidateName checks a tracker name as typed in a form field.
func ValidateName(name string) error {
	if validate.Var(name, "title") != nil {
		return fmt.Errorf("name must be 1-%d characters", constants.MaxTitleLength)
	}
	return nil
}

// ValidateHexColor checks a #RRGGBB color as typed in a form field.
func ValidateHexColor(color string) error {
	if validate.Var(color, "required,hex_color") != nil {
		return errors.New("color must look like #RRGGBB")
	}
	return nil
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.StructField())
	if strings.HasPrefix(fe.Namespace(), "TrackerInput.Schedule[") {
		field = "schedule"
	}
	switch fe.Tag() {
	case "title":
		return fmt.Sprintf("%s must be 1-%d characters", field, constants.MaxTitleLength)
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "hex_color":
		return fmt.Sprintf("%s must look like #RRGGBB", field)
	case "min", "max":
		return fmt.Sprintf("%s has an invalid weekday code %d", field, fe.Value())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
