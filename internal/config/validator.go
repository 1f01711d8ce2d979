package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration. Any error here is fatal at startup; nothing in the loop
// retries a bad config.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return opalerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if cfg.ReplyTemplate != "" && cfg.TemplateFile != "" {
		return opalerrors.NewValidationError("reply_template",
			"reply_template and template_file are mutually exclusive", nil)
	}

	if cfg.TemplateFile == "" && cfg.ReplyTemplate != "" &&
		!strings.Contains(cfg.ReplyTemplate, "{links}") {
		return opalerrors.NewValidationError("reply_template",
			"must contain the {links} placeholder", nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return opalerrors.NewValidationError(field, msg, err)
	}

	return opalerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
