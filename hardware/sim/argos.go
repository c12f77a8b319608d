package sim

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/arribada/horizon-core/hal"
)

// ArgosRadio implements hal.ArgosDevice as a software loopback in place of
// the ARTIC transceiver §1 places out of scope: Send logs the frame instead
// of putting it over the air, and StartReceive/StopReceive are no-ops since
// there is no satellite downlink to simulate receiving from.
type ArgosRadio struct {
	log logrus.FieldLogger

	mu           sync.Mutex
	listener     hal.ArgosListener
	frequencyMHz float64
	txPower      int
	deviceID     uint32
}

// NewArgosRadio constructs an ArgosRadio that logs transmissions through
// log.
func NewArgosRadio(log logrus.FieldLogger) *ArgosRadio {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ArgosRadio{log: log}
}

func (r *ArgosRadio) Subscribe(listener hal.ArgosListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = listener
}

func (r *ArgosRadio) Unsubscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = nil
}

func (r *ArgosRadio) SetFrequency(mhz float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frequencyMHz = mhz
}

func (r *ArgosRadio) SetTxPower(power int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txPower = power
}

func (r *ArgosRadio) SetTCXOWarmupTime(ms uint32) {}

func (r *ArgosRadio) SetDeviceIdentifier(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deviceID = id
}

func (r *ArgosRadio) SetIdleTimeout(ms uint32) {}

// Send logs the outgoing frame and notifies the listener of TX start and
// TX completion before it returns.
func (r *ArgosRadio) Send(mode hal.ArgosMode, packet []byte, bits int) error {
	r.mu.Lock()
	listener := r.listener
	r.log.WithFields(logrus.Fields{
		"mode":      mode,
		"bytes":     len(packet),
		"bits":      bits,
		"device_id": r.deviceID,
		"freq_mhz":  r.frequencyMHz,
		"tx_power":  r.txPower,
	}).Info("sim: argos transmit")
	r.mu.Unlock()

	if listener != nil {
		listener.OnArgosEvent(hal.ArgosEvent{Type: hal.ArgosTxStarted})
		listener.OnArgosEvent(hal.ArgosEvent{Type: hal.ArgosTxComplete})
	}
	return nil
}

func (r *ArgosRadio) StopSend() {}

func (r *ArgosRadio) StartReceive(mode hal.ArgosMode) error { return nil }

func (r *ArgosRadio) StopReceive() {}

var _ hal.ArgosDevice = (*ArgosRadio)(nil)
