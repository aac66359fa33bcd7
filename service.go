package ble

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Schema declares a service type: its UUID plus its characteristics in
// declaration order. Schemas are static data shared by every Service
// instance bound from them.
type Schema struct {
	uuid   UUID
	fields []schemaField
	index  map[string]int
}

type schemaField struct {
	name string
	char Characteristic
	wrap func(CharacteristicHandle, bool) (interface{}, error)
}

// NewSchema returns an empty schema for a service with the given UUID.
func NewSchema(u UUID) *Schema {
	return &Schema{uuid: u, index: make(map[string]int)}
}

// Add declares a characteristic field. It returns the schema for chaining
// and panics if the schema already contains the field name.
func (s *Schema) Add(name string, c Characteristic) *Schema {
	return s.add(name, c, nil)
}

// AddComplex declares a complex characteristic field.
func (s *Schema) AddComplex(name string, c ComplexCharacteristic) *Schema {
	return s.add(name, c.Characteristic, c.Wrap)
}

func (s *Schema) add(name string, c Characteristic, wrap func(CharacteristicHandle, bool) (interface{}, error)) *Schema {
	if _, ok := s.index[name]; ok {
		panic("schema already contains a field named " + name)
	}
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, schemaField{name: name, char: c, wrap: wrap})
	return s
}

// UUID returns the service's UUID.
func (s *Schema) UUID() UUID { return s.uuid }

// Fields returns the declared field names in declaration order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.name
	}
	return out
}

// Declared returns the characteristic declared under name.
func (s *Schema) Declared(name string) (Characteristic, bool) {
	i, ok := s.index[name]
	if !ok {
		return Characteristic{}, false
	}
	return s.fields[i].char, true
}

func (s *Schema) lookup(name string) (*schemaField, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%q in service %v", name, s.uuid)
	}
	return &s.fields[i], nil
}

// A Service is one bound instance of a schema. Its role — local (served
// by this process) or remote (discovered on a peer) — is fixed at
// construction. The binding map from field name to bound handle is owned
// exclusively by the instance and only ever grows.
type Service struct {
	schema  *Schema
	handle  ServiceHandle
	remote  bool
	chars   map[string]CharacteristicHandle
	objects map[string]interface{}
}

// LocalOption adjusts local binding.
type LocalOption func(*localConfig)

type localConfig struct {
	initialValues map[string][]byte
}

// WithInitialValue overrides the declared initial value for one field of
// this instance.
func WithInitialValue(field string, v []byte) LocalOption {
	return func(c *localConfig) {
		if c.initialValues == nil {
			c.initialValues = make(map[string][]byte)
		}
		c.initialValues[field] = v
	}
}

// BindLocal creates the service in the local attribute table and
// materializes every declared characteristic immediately, in declaration
// order. The eager pass is required: the underlying stacks demand that a
// service's characteristics enter the attribute table contiguously,
// before any other service is added.
func BindLocal(r Radio, schema *Schema, secondary bool, opts ...LocalOption) (*Service, error) {
	var cfg localConfig
	for _, o := range opts {
		o(&cfg)
	}
	h, err := r.AddService(schema.uuid, secondary)
	if err != nil {
		return nil, errors.Wrapf(err, "add service %v", schema.uuid)
	}
	s := &Service{
		schema:  schema,
		handle:  h,
		chars:   make(map[string]CharacteristicHandle),
		objects: make(map[string]interface{}),
	}
	for i := range schema.fields {
		f := &schema.fields[i]
		if f.wrap != nil {
			if _, err := s.object(f); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.ensureBound(f, cfg.initialValues[f.name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// BindRemote binds the schema to a service handle discovered on a peer.
// Characteristics bind lazily on first access, since discovery has
// already produced the peer's characteristic list. Passing a handle that
// is not genuinely remote is a programmer error, reported immediately.
func BindRemote(h ServiceHandle, schema *Schema) (*Service, error) {
	if h == nil {
		return nil, errors.Wrap(ErrInvalidRole, "nil service handle")
	}
	if !h.Remote() {
		return nil, errors.Wrapf(ErrInvalidRole, "service %v is local", h.UUID())
	}
	return &Service{
		schema:  schema,
		handle:  h,
		remote:  true,
		chars:   make(map[string]CharacteristicHandle),
		objects: make(map[string]interface{}),
	}, nil
}

// Remote reports whether the service is provided by a peer.
func (s *Service) Remote() bool { return s.remote }

// UUID returns the service's UUID.
func (s *Service) UUID() UUID { return s.schema.uuid }

// Handle returns the underlying attribute-table handle.
func (s *Service) Handle() ServiceHandle { return s.handle }

// ensureBound materializes the field's handle at most once per instance.
// Failure to find a characteristic on a remote peer is permanent for the
// life of the Service; there is no retry.
func (s *Service) ensureBound(f *schemaField, initial []byte) error {
	if _, ok := s.chars[f.name]; ok {
		return nil
	}
	if s.remote {
		for _, ch := range s.handle.Characteristics() {
			if ch.UUID().Equal(f.char.UUID) {
				log.Debugf("bound remote characteristic %s (%v)", f.name, f.char.UUID)
				s.chars[f.name] = ch
				return nil
			}
		}
		return errors.Wrapf(ErrCharacteristicUnavailable, "%s (%v)", f.name, f.char.UUID)
	}
	ch, err := s.handle.AddCharacteristic(f.char.withDerived(initial))
	if err != nil {
		return errors.Wrapf(err, "add characteristic %s (%v)", f.name, f.char.UUID)
	}
	log.Debugf("added local characteristic %s (%v)", f.name, f.char.UUID)
	s.chars[f.name] = ch
	return nil
}

// Characteristic returns the bound handle for a declared field, binding
// it first if needed.
func (s *Service) Characteristic(name string) (CharacteristicHandle, error) {
	f, err := s.schema.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBound(f, nil); err != nil {
		return nil, err
	}
	return s.chars[f.name], nil
}

// Value reads the raw value of a declared field.
func (s *Service) Value(name string) ([]byte, error) {
	ch, err := s.Characteristic(name)
	if err != nil {
		return nil, err
	}
	return ch.Value()
}

// SetValue writes the raw value of a declared field. On a local service
// the value also seeds the characteristic when this write is what first
// binds it.
func (s *Service) SetValue(name string, v []byte) error {
	f, err := s.schema.lookup(name)
	if err != nil {
		return err
	}
	if err := s.ensureBound(f, v); err != nil {
		return err
	}
	if v == nil {
		v = []byte{}
	}
	return s.chars[f.name].SetValue(v)
}

// Object returns the wrapper for a complex field, materializing it at
// most once per instance.
func (s *Service) Object(name string) (interface{}, error) {
	f, err := s.schema.lookup(name)
	if err != nil {
		return nil, err
	}
	if f.wrap == nil {
		return nil, errors.Errorf("field %q is not a complex characteristic", name)
	}
	return s.object(f)
}

func (s *Service) object(f *schemaField) (interface{}, error) {
	if o, ok := s.objects[f.name]; ok {
		return o, nil
	}
	if err := s.ensureBound(f, nil); err != nil {
		return nil, err
	}
	o, err := f.wrap(s.chars[f.name], s.remote)
	if err != nil {
		return nil, errors.Wrapf(err, "bind %s (%v)", f.name, f.char.UUID)
	}
	s.objects[f.name] = o
	return o, nil
}
