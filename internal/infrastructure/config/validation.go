package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists every config key that failed its rule
type ValidationError struct {
	Keys     []string
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

// newConfigValidator reports fields by their config keys (catalog.file_path)
// instead of Go field names
func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateConfig checks the loaded configuration against its struct tags
func ValidateConfig(cfg *Config) error {
	err := newConfigValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	result := &ValidationError{}
	for _, fe := range fieldErrs {
		// Namespace starts with the root type name
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		result.Keys = append(result.Keys, key)
		result.Problems = append(result.Problems, fmt.Sprintf("%s must satisfy %s (got %v)", key, rule, fe.Value()))
	}
	return result
}
