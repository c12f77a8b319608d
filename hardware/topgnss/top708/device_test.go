package top708

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSerialPort is a minimal SerialPort double scoped to what TOP708Device
// actually drives after trimming the teacher's RTK-configuration surface:
// open/close and a canned read stream.
type fakeSerialPort struct {
	mu        sync.Mutex
	openErr   error
	opened    bool
	sentences []string
	readIdx   int
}

func (f *fakeSerialPort) Open(portName string, baudRate int) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeSerialPort) Close() error {
	f.opened = false
	return nil
}

func (f *fakeSerialPort) Read(buffer []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readIdx >= len(f.sentences) {
		return 0, nil
	}
	s := f.sentences[f.readIdx]
	f.readIdx++
	n := copy(buffer, s)
	return n, nil
}

func (f *fakeSerialPort) Write(data []byte) (int, error) { return len(data), nil }

func (f *fakeSerialPort) SetReadTimeout(timeout time.Duration) error { return nil }

func TestTOP708DeviceConnectSucceedsOnFirstAttempt(t *testing.T) {
	port := &fakeSerialPort{}
	dev := NewTOP708Device(port)
	dev.retryDelay = time.Millisecond

	require.NoError(t, dev.Connect("/dev/ttyUSB0", 38400))
	assert.True(t, dev.IsConnected())
}

func TestTOP708DeviceConnectFailsAfterRetriesExhausted(t *testing.T) {
	port := &fakeSerialPort{openErr: errors.New("no such device")}
	dev := NewTOP708Device(port)
	dev.retryDelay = time.Millisecond
	dev.retryCount = 1

	err := dev.Connect("/dev/ttyUSB0", 38400)
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestTOP708DeviceDisconnectWithoutConnectIsNoop(t *testing.T) {
	dev := NewTOP708Device(&fakeSerialPort{})
	assert.NoError(t, dev.Disconnect())
}

func TestTOP708DeviceMonitorNMEARequiresConnection(t *testing.T) {
	dev := NewTOP708Device(&fakeSerialPort{})
	err := dev.MonitorNMEA(DefaultMonitorConfig(ProtocolNMEA, nil))
	assert.Error(t, err)
}

type recordingHandler struct {
	mu        sync.Mutex
	sentences []NMEASentence
}

func (h *recordingHandler) HandleNMEA(s NMEASentence) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sentences = append(h.sentences, s)
}

func TestTOP708DeviceMonitorNMEADispatchesParsedSentences(t *testing.T) {
	port := &fakeSerialPort{
		sentences: []string{"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n"},
	}
	dev := NewTOP708Device(port)
	require.NoError(t, dev.Connect("/dev/ttyUSB0", 38400))

	handler := &recordingHandler{}
	config := DefaultMonitorConfig(ProtocolNMEA, handler)
	config.PollInterval = time.Millisecond
	require.NoError(t, dev.MonitorNMEA(config))

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.sentences) == 1
	}, time.Second, time.Millisecond, "expected one dispatched NMEA sentence")

	dev.StopMonitoring()
}
