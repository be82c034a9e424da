package application

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/rocagg/infrastructure/units"
)

// unitIDPattern allows identifiers that are safe as map keys, metric
// labels and file name fragments.
var unitIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateCurveParameters checks the parameters of a built-in unit type
// by strictly decoding them into the unit's configuration struct, so
// misspelled keys are reported instead of silently ignored. The decoded
// configuration is then checked with its validator tags.
//
// Types that are not built in are accepted unchanged; their factories
// are responsible for their own parameters.
func ValidateCurveParameters(v *validator.Validate, unitType string, params yaml.Node) error {
	var target any
	switch unitType {
	case units.TypePartialCM:
		cfg := units.DefaultPartialCMConfig()
		target = &cfg
	case units.TypeROCCurve:
		cfg := units.DefaultROCCurveConfig()
		target = &cfg
	case units.TypePrecisionRecallCurve:
		cfg := units.DefaultPrecisionRecallConfig()
		target = &cfg
	default:
		return nil
	}

	if params.Kind != 0 {
		if err := strictDecode(params, target); err != nil {
			return fmt.Errorf("%s parameters: %w", unitType, err)
		}
	}

	if err := v.Struct(target); err != nil {
		return fmt.Errorf("%s parameters: %w", unitType, err)
	}
	return nil
}

// strictDecode decodes node into out, failing on unknown fields.
// yaml.Node.Decode has no strict mode, so the node is re-encoded and fed
// through a decoder with KnownFields enabled.
func strictDecode(node yaml.Node, out any) error {
	data, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	return nil
}

// registerCustomValidators registers domain-specific validation functions
// with the validator instance.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("unitid", validateUnitID); err != nil {
		return fmt.Errorf("failed to register unitid validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateUnitID validates curve identifiers against unitIDPattern.
func validateUnitID(fl validator.FieldLevel) bool {
	return unitIDPattern.MatchString(fl.Field().String())
}
