package dataset

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidRecord is returned when a record fails schema validation.
var ErrInvalidRecord = errors.New("invalid record")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ReadCSV parses job-salary rows. Columns outside the schema, such as a
// leading index column, are ignored.
func ReadCSV(r io.Reader) ([]Record, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// DecodeRecords converts raw field->value rows into typed records. Unknown
// fields are rejected and every record is validated against the schema.
func DecodeRecords(raw []map[string]any) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for i, row := range raw {
		var rec Record
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           &rec,
		})
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(row); err != nil {
			return nil, fmt.Errorf("record %d: %w: %v", i, ErrInvalidRecord, err)
		}

		if err := Validate(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		records = append(records, rec)
	}
	return records, nil
}

// Validate checks a record against the schema. A required field left empty
// is reported as ErrMissingColumn.
func Validate(rec Record) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %q", ErrMissingColumn, fe.Field())
		}
	}

	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidRecord, fe.Field(), fe.Tag(), fe.Value())
}
