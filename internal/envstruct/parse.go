package envstruct

import (
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/caarlos0/env/v11"
	"log/slog"
	"reflect"
	"strings"
)

var (
	ErrEnvNotSet    = errors.NewSentinel("environment variable not set")
	ErrInvalidValue = errors.NewSentinel("v must be a pointer to a struct")
	ErrParse        = errors.NewSentinel("environment variable has invalid value")
)

// Populate populates the fields of the pointer to struct v with values from the environment.
//
// lookupEnv is used to look up environment variables. It has the same signature as [os.LookupEnv].
// Fields in the struct v must be tagged with `env:"ENV_VAR"` where ENV_VAR is the name of the environment variable.
// If no environment variable matching ENV_VAR is provided, the field must be tagged with default value
// `envDefault:"value"` or else ErrEnvNotSet is returned. Values are converted to the field type with
// [env.ParseWithOptions], so anything it supports (numbers, booleans, durations, encoding.TextUnmarshaler
// such as [slog.Level]) can be used.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptrRef := reflect.ValueOf(v)
	if ptrRef.Kind() != reflect.Ptr {
		return errors.Wrap(ErrInvalidValue, "not pointer", slog.Any("v", v))
	}
	ref := ptrRef.Elem()
	if ref.Kind() != reflect.Struct {
		return errors.Wrap(ErrInvalidValue, "not struct", slog.Any("v", v))
	}

	refType := ref.Type()

	var (
		errorList  []error
		ok         bool
		envVarName string
		environ    = map[string]string{}
	)

	for i := range refType.NumField() {
		refField := ref.Field(i)
		refTypeField := refType.Field(i)
		tag := refTypeField.Tag

		envVarName, ok = tag.Lookup("env")
		if !ok {
			continue
		}
		envVarName, _, _ = strings.Cut(envVarName, ",")
		if !refField.CanSet() {
			errorList = append(errorList, errors.Wrap(ErrInvalidValue, "cannot set field",
				slog.String("fieldName", refTypeField.Name)))
			continue
		}

		if val, found, err := envLookupWithFallback(envVarName, tag, lookupEnv); err != nil {
			errorList = append(errorList, err)
		} else if found {
			environ[envVarName] = val
		}
	}

	if len(errorList) != 0 {
		// Join the errors into a single error.
		return errors.Join(errorList...)
	}

	// A non-nil Environment keeps env from reading the process environment behind our back.
	if err := env.ParseWithOptions(v, env.Options{Environment: environ}); err != nil { //nolint:exhaustruct // defaults are fine
		return errors.Wrap(errors.Mark(err, ErrParse), "parse environment", slog.String("type", refType.String()))
	}

	return nil
}

// envLookupWithFallback reports whether envVarName is set. Unset variables are fine when the field has a default
// because env applies `envDefault` itself.
func envLookupWithFallback(
	envVarName string, tag reflect.StructTag, lookupEnv func(string) (string, bool)) (string, bool, error) {
	envVarValue, ok := lookupEnv(envVarName)
	if ok {
		return envVarValue, true, nil
	}
	if _, ok = tag.Lookup("envDefault"); !ok {
		return "", false, errors.Wrap(ErrEnvNotSet, "environment variable not set", slog.String("envVarName", envVarName))
	}
	return "", false, nil
}
