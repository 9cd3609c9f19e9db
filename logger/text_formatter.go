package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
)

var baseTimestamp = time.Now()

// Width of the key column. Multi-line values are indented to line up with
// the value column.
const keyWidth = 20

// headerKeys are shown on the message line instead of in the field list.
var headerKeys = map[string]bool{"ns": true, "job": true}

// textFormatter writes colored, multi-line entries for people watching a
// terminal. Output that isn't a terminal gets JSON.
type textFormatter struct {
	TextFormatConfig
	json jsonFormatter
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || runtime.GOOS == "windows" {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if f.DisableColors || !(f.ForceColors || isColorTerminal(entry.Logger.Out)) {
		return f.json.Format(entry)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if !f.DisableTimestamp {
		entry.Data["time"] = f.timestamp(entry.Time)
	}

	color := levelColor(entry.Level)
	ns, _ := entry.Data["ns"].(string)
	header := entry.Message
	if id, ok := entry.Data["job"]; ok {
		header = fmt.Sprintf("[job %v] %s", id, entry.Message)
	}
	fmt.Fprintf(b, "%s%-*s %s\n", f.Indent, keyWidth, aurora.Colorize(ns, color|aurora.BoldFm), header)

	for _, k := range f.keys(entry) {
		fmt.Fprintf(b, "%s%-*s %v\n", f.Indent, keyWidth, aurora.Colorize(k, color), formatValue(entry.Data[k]))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// timestamp is either the full time or the seconds since startup.
func (f *textFormatter) timestamp(t time.Time) string {
	if f.FullTimestamp {
		return t.Format(f.TimestampFormat)
	}
	return fmt.Sprintf("%04d", int(t.Sub(baseTimestamp)/time.Second))
}

func (f *textFormatter) keys(entry *logrus.Entry) []string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if !headerKeys[k] {
			keys = append(keys, k)
		}
	}
	if !f.DisableSorting {
		sort.Strings(keys)
	}
	return keys
}

func levelColor(lvl logrus.Level) aurora.Color {
	switch lvl {
	case logrus.DebugLevel:
		return aurora.MagentaFg
	case logrus.WarnLevel:
		return aurora.BrownFg
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return aurora.RedFg
	}
	return aurora.CyanFg
}

// formatValue pretty-prints composite values, such as job records, and
// indents multi-line strings, such as scheduler output.
func formatValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, bool, error, fmt.Stringer,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case string:
		return strings.ReplaceAll(x, "\n", "\n"+strings.Repeat(" ", keyWidth+1))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return v
	}
	return pretty.Sprint(v)
}
