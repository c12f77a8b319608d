package top708

import (
	"strconv"
	"strings"
	"time"

	"github.com/arribada/horizon-core/hal"
)

// HALAdapter bridges TOP708Device's NMEA monitoring API to hal.GNSSDevice,
// the shape gnss.Service consumes. It is a thin protocol translation: GGA
// gives position/fix-quality/satellite-count, RMC gives the UTC date needed
// to complete GGA's time-of-day into a full timestamp.
type HALAdapter struct {
	device   *TOP708Device
	portName string
	baudRate int

	listener hal.GNSSListener
	lastDate string // ddmmyy from the most recent RMC sentence
}

// NewHALAdapter constructs a HALAdapter that connects device to portName at
// baudRate on PowerOn.
func NewHALAdapter(device *TOP708Device, portName string, baudRate int) *HALAdapter {
	return &HALAdapter{device: device, portName: portName, baudRate: baudRate}
}

// PowerOn implements hal.GNSSDevice: it connects the serial port and starts
// NMEA monitoring, delivering GNSSPVT events to listener as GGA sentences
// arrive. settings is accepted for interface compatibility; this receiver
// has no nav-engine configuration registers of its own to apply it to.
func (a *HALAdapter) PowerOn(settings hal.NavSettings, listener hal.GNSSListener) error {
	a.listener = listener
	if err := a.device.Connect(a.portName, a.baudRate); err != nil {
		return err
	}
	if listener != nil {
		listener.OnGNSSEvent(hal.GNSSEvent{Type: hal.GNSSPowerOn})
	}
	config := DefaultMonitorConfig(ProtocolNMEA, a)
	return a.device.MonitorNMEA(config)
}

// PowerOff implements hal.GNSSDevice.
func (a *HALAdapter) PowerOff() error {
	a.device.StopMonitoring()
	err := a.device.Disconnect()
	if a.listener != nil {
		a.listener.OnGNSSEvent(hal.GNSSEvent{Type: hal.GNSSPowerOff})
	}
	return err
}

// HandleNMEA implements DataHandler, translating GGA/RMC sentences into
// hal.GNSSEvent deliveries.
func (a *HALAdapter) HandleNMEA(sentence NMEASentence) {
	if a.listener == nil {
		return
	}
	switch {
	case strings.HasSuffix(sentence.Type, "RMC"):
		if len(sentence.Fields) > 8 {
			a.lastDate = sentence.Fields[8]
		}
	case strings.HasSuffix(sentence.Type, "GGA"):
		pvt, ok := parseGGA(sentence.Fields, a.lastDate)
		if !ok {
			return
		}
		a.listener.OnGNSSEvent(hal.GNSSEvent{
			Type:     hal.GNSSPVT,
			PVT:      pvt,
			FixFound: pvt.FixValid,
			NumSVs:   pvt.NumSV,
		})
	}
}

// parseGGA decodes a $--GGA sentence's fields (time, lat, N/S, lon, E/W, fix
// quality, satellite count, hdop, altitude, ...) into PVTData. ddmmyy
// supplies the date GGA itself omits.
func parseGGA(fields []string, ddmmyy string) (hal.PVTData, bool) {
	if len(fields) < 9 {
		return hal.PVTData{}, false
	}

	fixQuality, _ := strconv.Atoi(fields[5])
	if fixQuality == 0 {
		return hal.PVTData{FixValid: false}, true
	}

	lat, ok := parseNMEACoordinate(fields[1], fields[2])
	if !ok {
		return hal.PVTData{}, false
	}
	lon, ok := parseNMEACoordinate(fields[3], fields[4])
	if !ok {
		return hal.PVTData{}, false
	}

	numSV, _ := strconv.Atoi(fields[6])
	hdop, _ := strconv.ParseFloat(fields[7], 64)
	altM, _ := strconv.ParseFloat(fields[8], 64)

	pvt := hal.PVTData{
		Time:     parseNMEATime(fields[0], ddmmyy),
		FixType:  fixQuality,
		FixValid: true,
		NumSV:    numSV,
		LatDeg:   lat,
		LonDeg:   lon,
		HeightMM: int32(altM * 1000),
		HMSLMm:   int32(altM * 1000),
		HDOP:     hdop,
	}
	return pvt, true
}

// parseNMEACoordinate converts an NMEA ddmm.mmmm/dddmm.mmmm value plus its
// hemisphere letter into signed decimal degrees.
func parseNMEACoordinate(value, hemisphere string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	dotIdx := strings.Index(value, ".")
	if dotIdx < 2 {
		return 0, false
	}
	degDigits := dotIdx - 2
	deg, err := strconv.ParseFloat(value[:degDigits], 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, false
	}
	decimal := deg + min/60
	if hemisphere == "S" || hemisphere == "W" {
		decimal = -decimal
	}
	return decimal, true
}

// parseNMEATime combines an NMEA hhmmss.sss time-of-day with a ddmmyy date
// into a UTC time.Time; either missing or malformed leaves a zero time.
func parseNMEATime(hhmmss, ddmmyy string) time.Time {
	if len(hhmmss) < 6 || len(ddmmyy) < 6 {
		return time.Time{}
	}
	hh, err1 := strconv.Atoi(hhmmss[0:2])
	mm, err2 := strconv.Atoi(hhmmss[2:4])
	ss, err3 := strconv.Atoi(hhmmss[4:6])
	dd, err4 := strconv.Atoi(ddmmyy[0:2])
	mon, err5 := strconv.Atoi(ddmmyy[2:4])
	yy, err6 := strconv.Atoi(ddmmyy[4:6])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return time.Time{}
	}
	year := 2000 + yy
	if yy >= 80 {
		year = 1900 + yy
	}
	return time.Date(year, time.Month(mon), dd, hh, mm, ss, 0, time.UTC)
}

var _ hal.GNSSDevice = (*HALAdapter)(nil)
var _ DataHandler = (*HALAdapter)(nil)
