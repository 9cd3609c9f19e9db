package logger

import (
	"github.com/sirupsen/logrus"
)

// jsonFormatter writes one JSON object per entry, for log collectors.
// Fields keep their names, so a job's entries can be found by "job".
type jsonFormatter struct {
	conf JSONFormatConfig
}

func (f *jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	out := logrus.JSONFormatter{
		DisableHTMLEscape: true,
		DisableTimestamp:  f.conf.DisableTimestamp,
		TimestampFormat:   f.conf.TimestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	}
	return out.Format(entry)
}
