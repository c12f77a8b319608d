package top708

import (
	"time"

	"go.bug.st/serial"
)

// SerialPort is the port abstraction TOP708Device drives; GNSSSerialPort is
// its go.bug.st/serial-backed implementation, fakeSerialPort (device_test.go)
// its test double. Port enumeration and VID/PID inspection, which the
// teacher's driver exposed for its RTK base-station tooling, has no caller
// here: the beacon is wired to a fixed port name at startup (cmd/beacon
// config), so that surface is trimmed.
type SerialPort interface {
	Open(portName string, baudRate int) error
	Close() error
	Read(buffer []byte) (int, error)
	Write(data []byte) (int, error)
	SetReadTimeout(timeout time.Duration) error
}

// GNSSSerialPort implements SerialPort over a real host serial device.
type GNSSSerialPort struct {
	port    serial.Port
	timeout time.Duration
}

// NewGNSSSerialPort constructs an unopened GNSSSerialPort.
func NewGNSSSerialPort() *GNSSSerialPort {
	return &GNSSSerialPort{timeout: 500 * time.Millisecond}
}

func (p *GNSSSerialPort) Open(portName string, baudRate int) error {
	mode := &serial.Mode{BaudRate: baudRate}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(p.timeout); err != nil {
		port.Close()
		return err
	}
	p.port = port
	return nil
}

func (p *GNSSSerialPort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

func (p *GNSSSerialPort) Read(buffer []byte) (int, error) {
	return p.port.Read(buffer)
}

func (p *GNSSSerialPort) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

func (p *GNSSSerialPort) SetReadTimeout(timeout time.Duration) error {
	p.timeout = timeout
	if p.port == nil {
		return nil
	}
	return p.port.SetReadTimeout(timeout)
}

var _ SerialPort = (*GNSSSerialPort)(nil)
