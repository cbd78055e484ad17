package schema

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/floodcast/segconf/internal/document"
)

// Decode maps a resolved tree onto the typed Config. Decoding is strict
// about scalar kinds: a string where a number is required is a SchemaError,
// not a coercion, and a fractional float never truncates into an integer
// field. Unknown keys are tolerated so experiment files can carry
// consumer-specific extras.
func Decode(tree document.Map) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &cfg,
		TagName:    "mapstructure",
		DecodeHook: rejectFractionalFloatHook,
	})
	if err != nil {
		return nil, &SchemaError{Reason: "build decoder", Err: err}
	}
	if err := decoder.Decode(map[string]any(tree)); err != nil {
		return nil, &SchemaError{Reason: err.Error(), Err: err}
	}
	return &cfg, nil
}

// rejectFractionalFloatHook blocks the default float-to-int conversion when
// the value has a fractional part. Without it, batch_size 2.7 would decode
// to 2 while the persisted snapshot keeps 2.7.
func rejectFractionalFloatHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("non-integral value %v where an integer is required", data)
	}
	return data, nil
}
