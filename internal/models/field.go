package models

import "encoding/json"

// NotAvailable is the sentinel written at export boundaries for fields
// that extraction could not populate. Computation code never compares
// against this string; it checks Field presence instead.
const NotAvailable = "N/A"

// Field is an optional string value. The zero value is absent.
type Field struct {
	value   string
	present bool
}

// FieldOf wraps a non-empty string in a present Field. An empty string
// yields an absent Field.
func FieldOf(value string) Field {
	if value == "" {
		return Field{}
	}
	return Field{value: value, present: true}
}

// NA returns an absent Field.
func NA() Field {
	return Field{}
}

func (f Field) OK() bool {
	return f.present
}

// Value returns the underlying string, empty when absent.
func (f Field) Value() string {
	return f.value
}

// Export returns the value, or the NotAvailable sentinel when absent.
// This is the only place the sentinel is produced.
func (f Field) Export() string {
	if !f.present {
		return NotAvailable
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Export())
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == NotAvailable {
		*f = Field{}
		return nil
	}
	*f = FieldOf(s)
	return nil
}
