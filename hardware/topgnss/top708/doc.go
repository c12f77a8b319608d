/*
Package top708 adapts a TOPGNSS TOP708 GNSS receiver to hal.GNSSDevice for
bring-up and demo use by cmd/beacon. spec.md puts the concrete chip driver
out of scope for the beacon's operational logic, so this package deliberately
implements only the slice of the teacher's driver that reaching a real
serial-attached TOP708 for a position fix requires: connect, read NMEA
sentences, disconnect. The teacher's RTK-oriented surface (RTCM/UBX
correction streams, baud-rate/constellation/update-rate configuration
commands, port enumeration) has no caller in this tree and was trimmed.

# HALAdapter

HALAdapter bridges TOP708Device's NMEA monitoring to hal.GNSSDevice, the
shape gnss.Service consumes: PowerOn connects and starts monitoring, GGA/RMC
sentences become hal.GNSSEvent deliveries, PowerOff disconnects.

	device := top708.NewTOP708Device(top708.NewGNSSSerialPort())
	adapter := top708.NewHALAdapter(device, "/dev/ttyUSB0", 38400)
	err := adapter.PowerOn(hal.NavSettings{}, listener)

# SerialPort

SerialPort abstracts the underlying transport; GNSSSerialPort implements it
over go.bug.st/serial for a real host serial device.

# NMEA parsing

NMEAParser validates and splits raw NMEA-0183 sentences into NMEASentence,
the structure HALAdapter.HandleNMEA consumes to build hal.PVTData.
*/
package top708
