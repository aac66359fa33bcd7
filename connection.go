package ble

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Lookup addresses a service on a peer either by UUID or by schema. It
// replaces ad-hoc "anything with a UUID" dispatch with a closed union the
// caller resolves explicitly.
type Lookup struct {
	uuid   UUID
	schema *Schema
}

// LookupUUID addresses a service by UUID alone.
func LookupUUID(u UUID) Lookup { return Lookup{uuid: u} }

// LookupSchema addresses a service by its schema.
func LookupSchema(s *Schema) Lookup { return Lookup{uuid: s.uuid, schema: s} }

// UUID returns the UUID the lookup resolves to.
func (l Lookup) UUID() UUID { return l.uuid }

// A Connection wraps a radio connection and acts as a map from service
// schema to bound Service for the connection's peer. Discovery results
// and constructed Services are cached per UUID for the connection's life.
type Connection struct {
	conn       Conn
	discovered map[UUID]ServiceHandle
	services   map[UUID]*Service
}

// NewConnection wraps an established radio connection.
func NewConnection(c Conn) *Connection {
	return &Connection{
		conn:       c,
		discovered: make(map[UUID]ServiceHandle),
		services:   make(map[UUID]*Service),
	}
}

// Connected reports whether the underlying connection is still up.
func (c *Connection) Connected() bool { return c.conn.Connected() }

// Disconnect tears the connection down, invalidating every handle bound
// through it.
func (c *Connection) Disconnect() error { return c.conn.Disconnect() }

// Conn returns the underlying radio connection.
func (c *Connection) Conn() Conn { return c.conn }

func (c *Connection) discover(u UUID) (ServiceHandle, error) {
	if h, ok := c.discovered[u]; ok {
		return h, nil
	}
	results, err := c.conn.DiscoverServices([]UUID{u})
	if err != nil {
		return nil, errors.Wrapf(err, "discover service %v", u)
	}
	if len(results) == 0 {
		return nil, errors.Wrapf(ErrServiceUnavailable, "%v", u)
	}
	log.Debugf("discovered service %v", u)
	c.discovered[u] = results[0]
	return results[0], nil
}

// Has reports whether the peer provides the looked-up service.
func (c *Connection) Has(l Lookup) bool {
	_, err := c.discover(l.uuid)
	return err == nil
}

// Service returns the peer's Service for the given schema, discovering
// and binding it on first use and returning the same instance afterwards.
func (c *Connection) Service(schema *Schema) (*Service, error) {
	if s, ok := c.services[schema.uuid]; ok {
		return s, nil
	}
	h, err := c.discover(schema.uuid)
	if err != nil {
		return nil, err
	}
	s, err := BindRemote(h, schema)
	if err != nil {
		return nil, err
	}
	c.services[schema.uuid] = s
	return s, nil
}
