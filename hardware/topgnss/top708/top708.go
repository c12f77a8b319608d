package top708

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Logger defines a simple logging interface.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// DefaultLogger writes to stdout via fmt.Printf.
type DefaultLogger struct{}

func (l *DefaultLogger) Printf(format string, v ...interface{}) { fmt.Printf(format, v...) }
func (l *DefaultLogger) Debugf(format string, v ...interface{}) { fmt.Printf("[DEBUG] "+format, v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{})  { fmt.Printf("[INFO] "+format, v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{})  { fmt.Printf("[WARN] "+format, v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) { fmt.Printf("[ERROR] "+format, v...) }

// TOP708Device drives a TOPGNSS TOP708 receiver over a SerialPort, emitting
// parsed NMEA sentences to a DataHandler. It is the beacon's bring-up GNSS
// source: spec.md places the concrete chip driver out of scope, so this
// keeps only the connect/monitor path hal.GNSSDevice (via HALAdapter)
// actually exercises — the teacher's RTK configuration commands (baud-rate
// switching, constellation/update-rate PMTK commands, port enumeration)
// have no caller here and were trimmed rather than ported unused.
type TOP708Device struct {
	serialPort SerialPort
	connected  bool
	mutex      sync.Mutex
	stopChan   chan bool
	logger     Logger
	portName   string
	baudRate   int
	retryCount int
	retryDelay time.Duration
}

// NewTOP708Device creates a new TOPGNSS TOP708 device.
func NewTOP708Device(serialPort SerialPort) *TOP708Device {
	return &TOP708Device{
		serialPort: serialPort,
		stopChan:   make(chan bool),
		logger:     &DefaultLogger{},
		retryCount: 3,
		retryDelay: 1 * time.Second,
	}
}

// SetLogger sets a custom logger for the device.
func (d *TOP708Device) SetLogger(logger Logger) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.logger = logger
}

// Connect establishes a connection to the device, retrying on failure.
func (d *TOP708Device) Connect(portName string, baudRate int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.connected {
		d.logger.Debugf("Device already connected\n")
		return fmt.Errorf("device already connected")
	}

	if baudRate <= 0 {
		baudRate = 38400 // default for TOPGNSS TOP708
		d.logger.Debugf("Using default baud rate: %d\n", baudRate)
	}

	d.portName = portName
	d.baudRate = baudRate

	d.logger.Infof("Connecting to %s at %d baud...\n", portName, baudRate)

	var err error
	for attempt := 0; attempt <= d.retryCount; attempt++ {
		if attempt > 0 {
			d.logger.Infof("Retrying connection (attempt %d/%d)...\n", attempt, d.retryCount)
			time.Sleep(d.retryDelay)
		}

		err = d.serialPort.Open(portName, baudRate)
		if err == nil {
			d.connected = true
			d.logger.Infof("Successfully connected to %s\n", portName)
			return nil
		}

		d.logger.Warnf("Connection attempt %d failed: %v\n", attempt+1, err)
	}

	return fmt.Errorf("failed to connect to device after %d attempts: %w", d.retryCount+1, err)
}

// Disconnect closes the connection to the device.
func (d *TOP708Device) Disconnect() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.connected {
		d.logger.Debugf("Device already disconnected\n")
		return nil
	}

	d.logger.Infof("Disconnecting from device...\n")

	select {
	case d.stopChan <- true:
		d.logger.Debugf("Stopped monitoring\n")
	default:
		// no monitoring active
	}

	err := d.serialPort.Close()
	if err != nil {
		d.logger.Errorf("Error disconnecting device: %v\n", err)
		return fmt.Errorf("error disconnecting device: %w", err)
	}

	d.connected = false
	d.logger.Infof("Successfully disconnected from device\n")
	return nil
}

// IsConnected returns whether the device is connected.
func (d *TOP708Device) IsConnected() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.connected
}

// MonitorNMEA starts a background goroutine reading NMEA sentences and
// dispatching them to config.Handler until StopMonitoring is called.
func (d *TOP708Device) MonitorNMEA(config MonitorConfig) error {
	if !d.IsConnected() {
		err := errors.New("device not connected")
		d.logger.Errorf("MonitorNMEA failed: %v\n", err)
		return err
	}

	d.logger.Infof("Starting NMEA monitoring with poll interval %v...\n", config.PollInterval)

	nmeaParser := NewNMEAParser()
	buffer := make([]byte, config.BufferSize)
	dataBuffer := ""
	sentenceCount := 0
	errorCount := 0
	lastErrorTime := time.Time{}

	go func() {
		d.logger.Debugf("NMEA monitoring goroutine started\n")

		for {
			select {
			case <-d.stopChan:
				d.logger.Infof("NMEA monitoring stopped\n")
				return
			default:
				n, err := d.serialPort.Read(buffer)
				if err != nil {
					if time.Since(lastErrorTime) > 5*time.Second {
						d.logger.Debugf("Read error: %v (suppressing similar errors for 5s)\n", err)
						lastErrorTime = time.Now()
						errorCount++
					}
					time.Sleep(config.PollInterval)
					continue
				}

				if n > 0 {
					dataBuffer += string(buffer[:n])

					for {
						startIdx := strings.Index(dataBuffer, "$")
						if startIdx == -1 {
							break
						}

						endIdx := strings.Index(dataBuffer[startIdx:], "\r\n")
						if endIdx == -1 {
							break
						}
						endIdx += startIdx

						sentence := dataBuffer[startIdx:endIdx]
						parsedSentence := nmeaParser.Parse(sentence)

						if parsedSentence.Valid && config.Handler != nil {
							sentenceCount++
							if sentenceCount%100 == 0 {
								d.logger.Debugf("Processed %d NMEA sentences, last type: %s\n",
									sentenceCount, parsedSentence.Type)
							}
							config.Handler.HandleNMEA(parsedSentence)
						} else if !parsedSentence.Valid {
							d.logger.Debugf("Invalid NMEA sentence: %s\n", sentence)
						}

						if endIdx+2 <= len(dataBuffer) {
							dataBuffer = dataBuffer[endIdx+2:]
						} else {
							dataBuffer = ""
						}
					}
				}

				if len(dataBuffer) > config.BufferSize*2 {
					d.logger.Warnf("NMEA buffer overflow, trimming %d bytes\n", len(dataBuffer)-config.BufferSize)
					dataBuffer = dataBuffer[len(dataBuffer)-config.BufferSize:]
				}

				time.Sleep(config.PollInterval)
			}
		}
	}()

	d.logger.Infof("NMEA monitoring started successfully\n")
	return nil
}

// StopMonitoring stops all monitoring activities.
func (d *TOP708Device) StopMonitoring() {
	d.logger.Infof("Stopping monitoring...\n")

	select {
	case d.stopChan <- true:
		d.logger.Debugf("Stop signal sent\n")
	case <-time.After(500 * time.Millisecond):
		d.logger.Warnf("Timed out sending stop signal, monitoring may already be stopped\n")
	}
}
