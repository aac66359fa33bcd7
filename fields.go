package ble

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Typed accessors over bound characteristics. Each takes the Service and
// addresses its field by name; the underlying binding still happens at
// most once per Service instance.
//
// Reads are lenient about stored values shorter than the declared layout:
// they report absence instead of failing, matching how sparsely
// initialized peers behave in practice.

// A StructField views a characteristic as a fixed-size binary value.
type StructField struct {
	Name string
	Size int
}

// Read returns the stored bytes when they are at least Size long.
func (f StructField) Read(s *Service) ([]byte, bool, error) {
	v, err := s.Value(f.Name)
	if err != nil {
		return nil, false, err
	}
	if len(v) < f.Size {
		return nil, false, nil
	}
	out := make([]byte, f.Size)
	copy(out, v)
	return out, true, nil
}

// Write stores v, which must be exactly Size bytes.
func (f StructField) Write(s *Service, v []byte) error {
	if len(v) != f.Size {
		return errors.Wrapf(ErrMalformedValue, "%s: got %d bytes, want %d", f.Name, len(v), f.Size)
	}
	return s.SetValue(f.Name, v)
}

// An IntField views a characteristic as a bounded little-endian integer.
type IntField struct {
	Name string

	size   int
	signed bool
	min    int64
	max    int64
}

// Int8Field returns an int8 view of the named field.
func Int8Field(name string) IntField {
	return IntField{Name: name, size: 1, signed: true, min: math.MinInt8, max: math.MaxInt8}
}

// Uint8Field returns a uint8 view of the named field.
func Uint8Field(name string) IntField {
	return IntField{Name: name, size: 1, min: 0, max: math.MaxUint8}
}

// Int16Field returns an int16 view of the named field.
func Int16Field(name string) IntField {
	return IntField{Name: name, size: 2, signed: true, min: math.MinInt16, max: math.MaxInt16}
}

// Uint16Field returns a uint16 view of the named field.
func Uint16Field(name string) IntField {
	return IntField{Name: name, size: 2, min: 0, max: math.MaxUint16}
}

// Int32Field returns an int32 view of the named field.
func Int32Field(name string) IntField {
	return IntField{Name: name, size: 4, signed: true, min: math.MinInt32, max: math.MaxInt32}
}

// Uint32Field returns a uint32 view of the named field.
func Uint32Field(name string) IntField {
	return IntField{Name: name, size: 4, min: 0, max: math.MaxUint32}
}

// WithRange narrows the permitted value range for writes.
func (f IntField) WithRange(min, max int64) IntField {
	f.min, f.max = min, max
	return f
}

// Read returns the stored integer, reporting absence when the stored
// value is shorter than the field's size.
func (f IntField) Read(s *Service) (int64, bool, error) {
	b, err := s.Value(f.Name)
	if err != nil {
		return 0, false, err
	}
	if len(b) < f.size {
		return 0, false, nil
	}
	var u uint64
	for i := f.size - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	if f.signed {
		shift := uint(64 - 8*f.size)
		return int64(u<<shift) >> shift, true, nil
	}
	return int64(u), true, nil
}

// Write stores v after checking it against the field's range.
func (f IntField) Write(s *Service, v int64) error {
	if v < f.min || v > f.max {
		return errors.Wrapf(ErrValueOutOfRange, "%s: %d not in [%d, %d]", f.Name, v, f.min, f.max)
	}
	b := make([]byte, f.size)
	u := uint64(v)
	for i := 0; i < f.size; i++ {
		b[i] = byte(u >> (8 * i))
	}
	return s.SetValue(f.Name, b)
}

// A FloatField views a characteristic as a little-endian IEEE 754 value.
type FloatField struct {
	Name string
	size int
}

// Float32Field returns a float32 view of the named field.
func Float32Field(name string) FloatField { return FloatField{Name: name, size: 4} }

// Float64Field returns a float64 view of the named field.
func Float64Field(name string) FloatField { return FloatField{Name: name, size: 8} }

// Read returns the stored float, reporting absence when the stored value
// is shorter than the field's size.
func (f FloatField) Read(s *Service) (float64, bool, error) {
	b, err := s.Value(f.Name)
	if err != nil {
		return 0, false, err
	}
	if len(b) < f.size {
		return 0, false, nil
	}
	if f.size == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), true, nil
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), true, nil
}

// Write stores v.
func (f FloatField) Write(s *Service, v float64) error {
	b := make([]byte, f.size)
	if f.size == 4 {
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	} else {
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
	return s.SetValue(f.Name, b)
}

// A StringField views a characteristic as a UTF-8 string. The string is
// not terminated; the attribute length carries the size.
type StringField struct {
	Name string
}

// Read returns the stored string.
func (f StringField) Read(s *Service) (string, error) {
	v, err := s.Value(f.Name)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Write stores v.
func (f StringField) Write(s *Service, v string) error {
	return s.SetValue(f.Name, []byte(v))
}

// A JSONField views a characteristic as a JSON document.
type JSONField struct {
	Name string
}

// Read unmarshals the stored document into out. An empty value is treated
// as absent and leaves out untouched.
func (f JSONField) Read(s *Service, out interface{}) error {
	v, err := s.Value(f.Name)
	if err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	if err := json.Unmarshal(v, out); err != nil {
		return errors.Wrapf(ErrMalformedValue, "%s: %v", f.Name, err)
	}
	return nil
}

// Write marshals v into the characteristic.
func (f JSONField) Write(s *Service, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", f.Name)
	}
	return s.SetValue(f.Name, b)
}
