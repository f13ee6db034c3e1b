package commands

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

var validate = validator.New()

// validateCommand checks struct tags and reports failures as invalid input
func validateCommand(cmd interface{}) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed %s (value: '%v')", e.Field(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("%w: %s", crafting.ErrInvalidInput, strings.Join(messages, "; "))
}
