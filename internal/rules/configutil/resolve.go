// Package configutil resolves per-rule options from the configuration file
// into typed rule settings.
package configutil

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Resolve merges user options over defaults and unmarshals to typed config.
// Invalid options yield the defaults; validate them with ValidateWithSchema
// first to report them.
func Resolve[T any](opts map[string]any, defaults T) T {
	if len(opts) == 0 {
		return defaults
	}
	result, err := decode[T](opts)
	if err != nil {
		return defaults
	}
	return mergeDefaults(result, defaults)
}

func decode[T any](opts map[string]any) (T, error) {
	var result T
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(opts, "."), nil); err != nil {
		return result, err
	}
	err := k.UnmarshalWithConf("", &result, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &result,
			WeaklyTypedInput: true,
		},
	})
	return result, err
}

// mergeDefaults fills zero-valued fields in result with values from defaults.
func mergeDefaults[T any](result, defaults T) T {
	resultVal := reflect.ValueOf(&result).Elem()
	defaultsVal := reflect.ValueOf(defaults)

	if resultVal.Kind() != reflect.Struct {
		return result
	}

	for i := range resultVal.NumField() {
		field := resultVal.Field(i)
		if field.CanSet() && field.IsZero() {
			field.Set(defaultsVal.Field(i))
		}
	}
	return result
}
