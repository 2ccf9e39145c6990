package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-field rules the tags cannot
// express. Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	table := c.CapabilityTable()
	if c.Sweep.DefaultVariant != "" && len(c.Capabilities) > 0 && !table.Has(c.Sweep.DefaultVariant) {
		problems = append(problems, fmt.Sprintf("sweep.default_variant %q is not in the capability table", c.Sweep.DefaultVariant))
	}
	seen := make(map[string]bool)
	for _, e := range c.Capabilities {
		if e.Variant == "" {
			problems = append(problems, "capabilities: entry with empty variant")
			continue
		}
		if seen[e.Variant] {
			problems = append(problems, fmt.Sprintf("capabilities: variant %q listed twice", e.Variant))
		}
		seen[e.Variant] = true
		if len(e.Functions) == 0 {
			problems = append(problems, fmt.Sprintf("capabilities: variant %q has no functions", e.Variant))
		}
	}
	if (c.Cache.Type == "postgres" || c.Cache.Type == "postgresql") && c.Cache.Path == "" {
		problems = append(problems, "cache.path must hold the postgres DSN")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got: %v", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s, got: %v", field, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation, got: %v", field, fe.Tag(), fe.Value())
	}
}
