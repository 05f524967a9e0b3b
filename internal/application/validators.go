package application

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterModelValidators registers custom validation functions with
// the validator instance for use in model configuration validation.
// RegisterModelValidators adds the semver, ascending and finite tags
// referenced by ModelConfig and its nested types.
// RegisterModelValidators returns an error if any validator registration
// fails.
func RegisterModelValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := v.RegisterValidation("ascending", validateAscending); err != nil {
		return fmt.Errorf("failed to register ascending validator: %w", err)
	}

	if err := v.RegisterValidation("finite", validateFinite); err != nil {
		return fmt.Errorf("failed to register finite validator: %w", err)
	}

	// Report YAML field names instead of Go field names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
// validateSemver is a validator.Func that can be registered with
// the validator instance for use in struct tags.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	if err != nil || n != 3 {
		return false
	}
	return major >= 0 && minor >= 0 && patch >= 0 &&
		value == fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

// validateAscending reports whether a float slice is non-decreasing.
// Non-slice fields always pass.
func validateAscending(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return true
	}

	for i := 1; i < field.Len(); i++ {
		prev, cur := field.Index(i-1), field.Index(i)
		if !isFloat(prev) || !isFloat(cur) {
			return true
		}
		if cur.Float() < prev.Float() {
			return false
		}
	}
	return true
}

// validateFinite rejects NaN and infinite float values.
func validateFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	if !isFloat(field) {
		return true
	}
	f := field.Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}
