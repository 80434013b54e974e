package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh/terminal"
)

var baseTimestamp = time.Now()

// Field names are padded to this width; continuation lines of multi-line
// values are indented past it.
const keyWidth = 14

const fieldIndent = "    "

// textFormatter writes one header line per entry
//
//	[time] LEVEL namespace  message
//
// followed by one indented "key  value" line per field. Output that is not a
// terminal falls back to JSON unless ForceFormatting is set.
type textFormatter struct {
	TextFormatConfig
	json jsonFormatter
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return terminal.IsTerminal(int(f.Fd())) && runtime.GOOS != "windows"
}

func levelColor(lvl logrus.Level) aurora.Color {
	switch lvl {
	case logrus.DebugLevel, logrus.TraceLevel:
		return aurora.MagentaFg
	case logrus.WarnLevel:
		return aurora.YellowFg
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return aurora.RedFg
	}
	return aurora.CyanFg
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	colored := (f.ForceColors || isColorTerminal(entry.Logger.Out)) && !f.DisableColors
	if !colored && !f.ForceFormatting {
		return f.json.Format(entry)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	color := levelColor(entry.Level)
	paint := func(s string, c aurora.Color) interface{} {
		if !colored {
			return s
		}
		return aurora.Colorize(s, c)
	}

	if ts := f.timestamp(entry.Time); ts != "" {
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	ns, _ := entry.Data["ns"].(string)
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	fmt.Fprintf(b, "%-4s %s  %s\n", paint(level, color), paint(ns, color|aurora.BoldFm), entry.Message)

	pad := "\n" + fieldIndent + strings.Repeat(" ", keyWidth+1)
	for _, k := range f.fieldKeys(entry) {
		v := stringify(entry.Data[k])
		v = strings.Join(strings.Split(v, "\n"), pad)
		fmt.Fprintf(b, "%s%s %s\n", fieldIndent, paint(fmt.Sprintf("%-*s", keyWidth, k), color), v)
	}
	return b.Bytes(), nil
}

func (f *textFormatter) timestamp(t time.Time) string {
	switch {
	case f.DisableTimestamp:
		return ""
	case f.FullTimestamp:
		return t.Format(f.TimestampFormat)
	}
	// seconds since the process started
	return fmt.Sprintf("[%04d]", int(t.Sub(baseTimestamp)/time.Second))
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(x)
	}
	return pretty.Sprint(v)
}

// fieldKeys returns the entry's field names without the namespace, sorted
// unless DisableSorting is set.
func (f *textFormatter) fieldKeys(entry *logrus.Entry) []string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "ns" {
			keys = append(keys, k)
		}
	}
	if !f.DisableSorting {
		sort.Strings(keys)
	}
	return keys
}
