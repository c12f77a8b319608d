// Package dteserial implements hal.Transport over a serial port, the local
// DTE control-protocol link in place of the BLE stack placed out of scope
// by §1. Grounded on the teacher's own go.bug.st/serial port handling.
package dteserial

import (
	"bufio"
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"

	"github.com/arribada/horizon-core/hal"
)

// Transport is a line-oriented hal.Transport over a serial port: each
// protocol.Encode frame is terminated by CRLF on the wire, matching the
// original DTE interface's framing.
type Transport struct {
	portName string
	mode     *serial.Mode

	mu      sync.Mutex
	port    serial.Port
	reader  *bufio.Scanner
	closed  bool
}

// New constructs a Transport bound to portName at baud, 8N1.
func New(portName string, baud int) *Transport {
	return &Transport{
		portName: portName,
		mode:     &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
	}
}

// Start opens the port and begins delivering received lines to onReceived
// on its own goroutine until ctx is cancelled or Stop is called.
func (t *Transport) Start(ctx context.Context, onConnected func(), onDisconnected func(), onReceived func(line string)) error {
	port, err := serial.Open(t.portName, t.mode)
	if err != nil {
		return fmt.Errorf("dteserial: open %s: %w", t.portName, err)
	}

	t.mu.Lock()
	t.port = port
	t.reader = bufio.NewScanner(port)
	t.closed = false
	t.mu.Unlock()

	if onConnected != nil {
		onConnected()
	}

	go func() {
		defer func() {
			if onDisconnected != nil {
				onDisconnected()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			t.mu.Lock()
			scanner := t.reader
			closed := t.closed
			t.mu.Unlock()
			if closed || scanner == nil {
				return
			}
			if !scanner.Scan() {
				return
			}
			if onReceived != nil {
				onReceived(scanner.Text())
			}
		}
	}()

	return nil
}

// Stop closes the underlying port, ending the receive loop.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.port == nil {
		return nil
	}
	t.closed = true
	return t.port.Close()
}

// Write sends s verbatim plus a terminating CRLF.
func (t *Transport) Write(s string) error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return fmt.Errorf("dteserial: not started")
	}
	_, err := port.Write([]byte(s + "\r\n"))
	return err
}

// ReadLine is unused by this transport, which delivers lines through the
// onReceived callback passed to Start; it exists to satisfy hal.Transport
// for implementations (tests, a pipe-backed fake) that poll instead.
func (t *Transport) ReadLine() (string, error) {
	t.mu.Lock()
	scanner := t.reader
	t.mu.Unlock()
	if scanner == nil {
		return "", fmt.Errorf("dteserial: not started")
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("dteserial: port closed")
	}
	return scanner.Text(), nil
}

var _ hal.Transport = (*Transport)(nil)
