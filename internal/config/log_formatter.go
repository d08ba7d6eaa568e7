package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	red         = 31
	green       = 32
	yellow      = 33
	blue        = 36
	gray        = 37
	cyan        = 96
	lightYellow = 93
	lightGreen  = 92
)

// LogFormatter renders key=value lines, colored unless NoColor is set.
type LogFormatter struct {
	NoColor bool
	// CallerSkip is the stack depth of the logging call site, zero disables it.
	CallerSkip int
}

func (f *LogFormatter) paint(color int, s string) string {
	if f.NoColor {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func (f *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	levelColor := blue
	switch entry.Level {
	case log.DebugLevel, log.TraceLevel:
		levelColor = gray
	case log.WarnLevel:
		levelColor = yellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		levelColor = red
	}

	var b strings.Builder
	pair := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.paint(cyan, key))
		b.WriteByte('=')
		b.WriteString(value)
	}

	pair("level", f.paint(levelColor, strings.ToUpper(entry.Level.String())[:4]))
	pair("ts", f.paint(lightYellow, entry.Time.Format("2006-01-02 15:04:05.000")))
	if f.CallerSkip > 0 {
		if _, file, line, ok := runtime.Caller(f.CallerSkip); ok {
			pair("source", f.paint(lightYellow, fmt.Sprintf("%s:%d", file, line)))
		}
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := entry.Data[k]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		m, err := json.Marshal(val)
		if err != nil || len(m) == 0 {
			continue
		}
		s := string(m)
		valueColor := cyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			valueColor = green
		} else if strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
			valueColor = lightYellow
		}
		pair(k, f.paint(valueColor, s))
	}
	pair("msg", f.paint(lightGreen, strconv.Quote(entry.Message)))

	output := strings.NewReplacer("\r", "\\r", "\n", "\\n").Replace(b.String()) + "\n"
	return []byte(output), nil
}
