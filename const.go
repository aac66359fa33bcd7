package ble

// This file includes constants from the BLE spec.

// MaxLegacyPacketLength is the maximum allowed advertising
// and scan-response payload length.
const MaxLegacyPacketLength = 31

// Advertising data field types.
const (
	ADTFlags            = 0x01 // Flags
	ADTSomeUUID16       = 0x02 // Incomplete List of 16-bit Service Class UUIDs
	ADTAllUUID16        = 0x03 // Complete List of 16-bit Service Class UUIDs
	ADTSomeUUID32       = 0x04 // Incomplete List of 32-bit Service Class UUIDs
	ADTAllUUID32        = 0x05 // Complete List of 32-bit Service Class UUIDs
	ADTSomeUUID128      = 0x06 // Incomplete List of 128-bit Service Class UUIDs
	ADTAllUUID128       = 0x07 // Complete List of 128-bit Service Class UUIDs
	ADTShortName        = 0x08 // Shortened Local Name
	ADTCompleteName     = 0x09 // Complete Local Name
	ADTTxPower          = 0x0A // Tx Power Level
	ADTSlaveConnInt     = 0x12 // Slave Connection Interval Range
	ADTServiceSol16     = 0x14 // List of 16-bit Service Solicitation UUIDs
	ADTServiceSol128    = 0x15 // List of 128-bit Service Solicitation UUIDs
	ADTServiceData16    = 0x16 // Service Data - 16-bit UUID
	ADTPubTargetAddr    = 0x17 // Public Target Address
	ADTRandTargetAddr   = 0x18 // Random Target Address
	ADTAppearance       = 0x19 // Appearance
	ADTAdvInterval      = 0x1A // Advertising Interval
	ADTServiceSol32     = 0x1F // List of 32-bit Service Solicitation UUIDs
	ADTServiceData32    = 0x20 // Service Data - 32-bit UUID
	ADTServiceData128   = 0x21 // Service Data - 128-bit UUID
	ADTManufacturerData = 0xFF // Manufacturer Specific Data
)

// flag bits
const (
	flagLimitedDiscoverable = 1 << iota // LE Limited Discoverable Mode
	flagGeneralDiscoverable             // LE General Discoverable Mode
	flagLEOnly                          // BR/EDR Not Supported
)

// Property is a characteristic property bitmask.
//
// Do not re-order the bit flags below;
// they are organized to match the BLE spec.
type Property byte

const (
	Broadcast       Property = 1 << iota // allowed in advertising packets
	Read                                 // clients may read this characteristic
	WriteNoResponse                      // clients may write; no response is sent back
	Write                                // clients may write; a response is sent back
	Notify                               // server notifies the client when the value changes
	Indicate                             // server indicates and waits for acknowledgement
)

// Permission is the security mode required to read or write an attribute.
// The zero value is Open.
type Permission int

const (
	Open Permission = iota
	NoAccess
	EncryptNoMITM
	EncryptWithMITM
	LESCEncryptWithMITM
	SignedNoMITM
	SignedWithMITM
)

// DefaultMaxLength is the largest value that fits a single
// un-negotiated ATT packet, and the default characteristic size.
const DefaultMaxLength = 20
