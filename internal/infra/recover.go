package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Recover runs f and logs a panic instead of crashing the process.
func Recover(id string, f func()) {
	defer func() {
		if err := recover(); err != nil {
			log.WithFields(log.Fields{
				"job":   id,
				"where": identifyPanic(),
			}).Errorf("recovered from panic: %v", err)
		}
	}()
	f()
}

// GoRecoverable runs f and restarts it in a new goroutine after a panic,
// at most maxPanics times. A negative maxPanics restarts forever.
func GoRecoverable(maxPanics int, id string, f func()) {
	defer func() {
		if err := recover(); err != nil {
			entry := log.WithFields(log.Fields{"job": id, "where": identifyPanic()})
			entry.Errorf("job panics: %v", err)
			if maxPanics == 0 {
				entry.Error("panics limit exceeded, job stopped")
				return
			}
			if maxPanics > 0 {
				maxPanics--
			}
			entry.WithField("panics_left", maxPanics).Debug("restarting job")
			go GoRecoverable(maxPanics, id, f)
		}
	}()
	f()
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}
	return fmt.Sprintf("pc:%x", pc)
}
