package sim

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/hal"
)

type recordingListener struct {
	events []hal.ArgosEventType
}

func (l *recordingListener) OnArgosEvent(e hal.ArgosEvent) {
	l.events = append(l.events, e.Type)
}

func TestArgosRadioSendNotifiesListener(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.InfoLevel)
	radio := NewArgosRadio(log)

	listener := &recordingListener{}
	radio.Subscribe(listener)

	require.NoError(t, radio.Send(hal.ArgosModeA3, []byte{0xff, 0xff}, 16))

	assert.Equal(t, []hal.ArgosEventType{hal.ArgosTxStarted, hal.ArgosTxComplete}, listener.events)
	assert.Len(t, hook.Entries, 1)
}

func TestArgosRadioUnsubscribeStopsNotifications(t *testing.T) {
	radio := NewArgosRadio(nil)
	listener := &recordingListener{}
	radio.Subscribe(listener)
	radio.Unsubscribe()

	require.NoError(t, radio.Send(hal.ArgosModeA2, []byte{0x01}, 8))
	assert.Empty(t, listener.events)
}
