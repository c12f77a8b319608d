package gnss

import (
	"fmt"

	"github.com/arribada/horizon-core/logentry"
)

// LogFormatter renders GNSS fix/no-fix records as CSV for log extraction.
type LogFormatter struct{}

func (LogFormatter) Header() string {
	return "log_datetime,valid,lon,lat,height_mm,hacc_mm,hdop,numsv,ontime_ms,ttff_ms,speed_mms,heading_deg,msl_mm,fix_type\r\n"
}

func (LogFormatter) LogEntry(entry []byte) string {
	hdr, payload := logentry.Decode(entry)
	datetime := logentry.FormatDateTime(hdr.Time())
	if len(payload) < 1 || payload[0] == 0 {
		return fmt.Sprintf("%s,0,,,,,,,,,,,,\r\n", datetime)
	}
	return fmt.Sprintf("%s,1,%f,%f,%f,%f,%f,%f,%f,%f,%f,%f,%f,%f\r\n",
		datetime,
		logentry.Float64(payload, 1),
		logentry.Float64(payload, 9),
		logentry.Float64(payload, 17),
		logentry.Float64(payload, 25),
		logentry.Float64(payload, 33),
		logentry.Float64(payload, 41),
		logentry.Float64(payload, 49),
		logentry.Float64(payload, 57),
		logentry.Float64(payload, 65),
		logentry.Float64(payload, 73),
		logentry.Float64(payload, 81),
		logentry.Float64(payload, 89),
	)
}
