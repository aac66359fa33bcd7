// Package ble provides the device-independent pieces of a Bluetooth Low
// Energy application: the GAP advertising data codec and a declarative
// GATT service/characteristic binding layer.
//
// ADVERTISING
//
// Advertising payloads are sequences of length-prefixed, type-tagged runs.
// DecodeEntries and EntryMap expose that format directly; Advertisement
// layers typed accessors (flags, local name, tx power, service UUID lists,
// manufacturer data) on top of it.
//
//	adv := ble.NewAdvertisement()
//	adv.SetCompleteName("gopher")
//	flags := adv.Flags()
//	flags.SetGeneralDiscovery(true)
//	flags.SetLEOnly(true)
//	payload := adv.Bytes()
//
// Received advertisements come from the radio as ScanEntry values and parse
// into an immutable Advertisement:
//
//	adv, err := ble.ParseAdvertisement(entry)
//	if name, ok := adv.CompleteName(); ok {
//		rssi, _ := adv.RSSI()
//		fmt.Println(name, rssi)
//	}
//
// SERVICES
//
// A Schema declares a service's characteristics once; a Service instance
// binds that schema either to a locally hosted attribute table or to a
// service discovered on a connected peer. The same schema serves both roles.
//
//	var uartRx = ble.MustParseVendorUUID("6e400002-b5a3-f393-e0a9-e50e24dcca9e")
//
//	schema := ble.NewSchema(svcUUID).
//		AddComplex("rx", ble.StreamIn(uartRx, time.Second, 64))
//
//	// Peripheral side:
//	svc, err := ble.BindLocal(radio, schema, false)
//
//	// Central side:
//	conn := ble.NewConnection(rawConn)
//	svc, err := conn.Service(schema)
//
// The radio itself (HCI access, connections, MTU, pairing) is not part of
// this package; it is consumed through the interfaces in radio.go.
package ble
