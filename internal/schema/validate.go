package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const splitEpsilon = 1e-6

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations against configuration paths rather than Go field
	// names, so "Training.BatchSize" surfaces as "training.batch_size".
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	return v
}

// Validate applies the declared field constraints and cross-field invariants
// and returns every violation found, not just the first.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &SchemaError{Reason: "configuration is nil"}
	}

	var violations ValidationErrors

	if err := newValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate configuration: %w", err)
		}
		for _, fe := range fieldErrs {
			violations = append(violations, ValidationError{
				Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
				Message: tagMessage(fe),
			})
		}
	}

	violations = append(violations, crossFieldViolations(cfg)...)

	if len(violations) > 0 {
		return violations
	}
	return nil
}

func crossFieldViolations(cfg *Config) ValidationErrors {
	var out ValidationErrors

	split := cfg.Tiling.TrainValPercent
	if sum := split.Trn + split.Val; math.Abs(sum-1.0) > splitEpsilon {
		out = append(out, ValidationError{
			Field:   "tiling.train_val_percent",
			Message: fmt.Sprintf("trn (%g) and val (%g) must sum to 1.0, got %g", split.Trn, split.Val, sum),
		})
	}

	if cfg.Training.MaxEpochs < cfg.Training.MinEpochs {
		out = append(out, ValidationError{
			Field:   "training.max_epochs",
			Message: fmt.Sprintf("must be >= min_epochs (%d), got %d", cfg.Training.MinEpochs, cfg.Training.MaxEpochs),
		})
	}
	if cfg.General.MaxEpochs < cfg.General.MinEpochs {
		out = append(out, ValidationError{
			Field:   "general.max_epochs",
			Message: fmt.Sprintf("must be >= min_epochs (%d), got %d", cfg.General.MinEpochs, cfg.General.MaxEpochs),
		})
	}

	if scale := cfg.Augmentation.ScaleData; len(scale) == 2 && scale[0] >= scale[1] {
		out = append(out, ValidationError{
			Field:   "augmentation.scale_data",
			Message: fmt.Sprintf("minimum (%g) must be below maximum (%g)", scale[0], scale[1]),
		})
	}

	norm := cfg.Augmentation.Normalization
	if len(norm.Mean) != len(norm.Std) {
		out = append(out, ValidationError{
			Field:   "augmentation.normalization",
			Message: fmt.Sprintf("mean has %d entries but std has %d", len(norm.Mean), len(norm.Std)),
		})
	}
	for i, std := range norm.Std {
		if std <= 0 {
			out = append(out, ValidationError{
				Field:   "augmentation.normalization.std",
				Message: fmt.Sprintf("entry %d must be positive, got %g", i, std),
			})
		}
	}

	if r := cfg.Visualization.VisBatchRange; len(r) == 3 {
		if r[2] < 1 {
			out = append(out, ValidationError{
				Field:   "visualization.vis_batch_range",
				Message: fmt.Sprintf("increment must be at least 1, got %d", r[2]),
			})
		}
		if r[0] > r[1] {
			out = append(out, ValidationError{
				Field:   "visualization.vis_batch_range",
				Message: fmt.Sprintf("minimum batch (%d) must not exceed maximum (%d)", r[0], r[1]),
			})
		}
	}

	if n := len(cfg.Dataset.ClassWeights); n > 0 && n != len(cfg.Dataset.ClassesDict) {
		out = append(out, ValidationError{
			Field:   "dataset.class_weights",
			Message: fmt.Sprintf("%d weights for %d classes", n, len(cfg.Dataset.ClassesDict)),
		})
	}

	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
