package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks the configuration using struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError rewrites validator output into something a user
// can act on.
func formatValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fe := range errs {
		return fmt.Errorf("%s: failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return err
}
