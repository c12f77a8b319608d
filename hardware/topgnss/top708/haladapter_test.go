package top708

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arribada/horizon-core/hal"
)

type recordingListener struct {
	events []hal.GNSSEvent
}

func (l *recordingListener) OnGNSSEvent(e hal.GNSSEvent) {
	l.events = append(l.events, e)
}

func TestHandleNMEAEmitsPVTOnValidGGA(t *testing.T) {
	adapter := NewHALAdapter(nil, "", 0)
	listener := &recordingListener{}
	adapter.listener = listener

	parser := NewNMEAParser()
	rmc := parser.Parse("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.True(t, rmc.Valid)
	adapter.HandleNMEA(rmc)

	gga := parser.Parse("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.True(t, gga.Valid)
	adapter.HandleNMEA(gga)

	require.Len(t, listener.events, 1)
	ev := listener.events[0]
	assert.Equal(t, hal.GNSSPVT, ev.Type)
	assert.True(t, ev.FixFound)
	assert.InDelta(t, 48.1173, ev.PVT.LatDeg, 0.001)
	assert.InDelta(t, 11.516666, ev.PVT.LonDeg, 0.001)
	assert.Equal(t, 8, ev.PVT.NumSV)
	assert.Equal(t, 1994, ev.PVT.Time.Year())
}

func TestHandleNMEAReportsNoFixForEmptyGGA(t *testing.T) {
	adapter := NewHALAdapter(nil, "", 0)
	listener := &recordingListener{}
	adapter.listener = listener

	parser := NewNMEAParser()
	gga := parser.Parse("$GPGGA,123519,,,,,0,00,,,,,,,*6B")
	require.True(t, gga.Valid)
	adapter.HandleNMEA(gga)

	require.Len(t, listener.events, 1)
	assert.False(t, listener.events[0].FixFound)
}

func TestParseNMEACoordinateHandlesHemisphere(t *testing.T) {
	lat, ok := parseNMEACoordinate("4807.038", "S")
	require.True(t, ok)
	assert.InDelta(t, -48.1173, lat, 0.001)
}
