package ble

import "github.com/pkg/errors"

// ErrPacketTooLong is the error returned when a mutation would push an
// advertising or scan-response payload past MaxLegacyPacketLength.
var ErrPacketTooLong = errors.New("max packet length is 31")

// ErrImmutable is returned when writing a field on an advertisement
// parsed from a scan entry.
var ErrImmutable = errors.New("advertisement is not mutable")

// ErrMalformedEntry is returned when an advertising run declares a length
// smaller than its key width.
var ErrMalformedEntry = errors.New("malformed advertising entry")

// ErrMalformedValue is returned when a stored characteristic value cannot
// be decoded as its declared layout.
var ErrMalformedValue = errors.New("malformed characteristic value")

// ErrValueOutOfRange is returned when writing a bounded integer field with
// a value outside its declared range.
var ErrValueOutOfRange = errors.New("value out of range")

// ErrCharacteristicUnavailable is returned when a remote service lacks a
// characteristic declared in the schema. The error is permanent for the
// life of the Service.
var ErrCharacteristicUnavailable = errors.New("characteristic not available on remote service")

// ErrServiceUnavailable is returned when service discovery on a peer finds
// no service with the requested UUID.
var ErrServiceUnavailable = errors.New("service not available on peer")

// ErrInvalidRole is returned when binding a schema to a service handle
// that is not remote.
var ErrInvalidRole = errors.New("can only bind a remote service handle")

// ErrUnknownField is returned when a field name does not appear in the
// service schema.
var ErrUnknownField = errors.New("field not declared in schema")
