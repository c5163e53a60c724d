package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/piwi3910/GlassCut/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator, with JSON tag names in error fields
// and the glass-specific tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("clip_size", validateClipSize)
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func validateClipSize(fl validator.FieldLevel) bool {
	return model.ClipSize(fl.Field().String()).Valid()
}

// ValidateSpec checks the business rules that do not depend on the rate table.
func ValidateSpec(spec model.GlassItemSpec) error {
	if err := Validator().Struct(spec); err != nil {
		return specErrorFromValidator(err)
	}

	if spec.Circular {
		if spec.Diameter.Sign() <= 0 {
			return &model.InvalidSpecError{Field: "diameter", Value: spec.Diameter.Exact(), Reason: "must be positive"}
		}
		if spec.ClippedCorners.Count > 0 {
			return &model.InvalidSpecError{
				Field: "clipped_corners.count", Value: fmt.Sprint(spec.ClippedCorners.Count),
				Reason: "circular pieces have no corners to clip",
			}
		}
	} else {
		if spec.Width.Sign() <= 0 {
			return &model.InvalidSpecError{Field: "width", Value: spec.Width.Exact(), Reason: "must be positive"}
		}
		if spec.Height.Sign() <= 0 {
			return &model.InvalidSpecError{Field: "height", Value: spec.Height.Exact(), Reason: "must be positive"}
		}
	}

	if spec.ClippedCorners.Count > 0 && !spec.ClippedCorners.Size.Valid() {
		return &model.InvalidSpecError{
			Field: "clipped_corners.size", Value: string(spec.ClippedCorners.Size),
			Reason: fmt.Sprintf("must be %q or %q", model.ClipUnder1, model.ClipOver1),
		}
	}
	return nil
}

// specErrorFromValidator reports the first failing field as an InvalidSpecError.
func specErrorFromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate glass item: %w", err)
	}
	fe := verrs[0]

	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "gte", "min":
		reason = "must be at least " + fe.Param()
	case "lte", "max":
		reason = "must be at most " + fe.Param()
	case "clip_size":
		reason = fmt.Sprintf("must be %q or %q", model.ClipUnder1, model.ClipOver1)
	default:
		reason = "failed " + fe.Tag() + " check"
	}
	return &model.InvalidSpecError{Field: field, Value: fmt.Sprint(fe.Value()), Reason: reason}
}
