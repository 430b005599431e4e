package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field constraints and reports every violation using the
// YAML field path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %q (%s)", yamlPath(fe.Namespace()), fmt.Sprint(fe.Value()), describeTag(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + fe.Param()
	case "endswith":
		return "must end with " + fe.Param()
	default:
		return fe.Tag()
	}
}

var yamlNames = map[string]string{
	"Log":      "log",
	"Level":    "level",
	"Format":   "format",
	"Metrics":  "metrics",
	"Textfile": "textfile",
}

// yamlPath converts a validator namespace such as "Config.Log.Level" to the
// document path "log.level".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		if name, ok := yamlNames[part]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, ".")
}
