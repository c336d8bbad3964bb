package goroutine

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var running atomic.Int32

// DumpDir receives the stack dump of a panicking goroutine.
var DumpDir = ""

// Running is the number of goroutines started by New that have not returned.
func Running() int32 {
	return running.Load()
}

// New runs function in a goroutine. A panic is dumped and rethrown.
func New(function func()) {
	running.Inc()
	go func() {
		defer running.Dec()
		defer dumpStack(true)
		function()
	}()
}

// WithRecover runs handler in a goroutine. A panic is dumped and swallowed.
func WithRecover(handler func()) {
	go func() {
		defer dumpStack(false)
		handler()
	}()
}

func dumpStack(rethrow bool) {
	err := recover()
	if err == nil {
		return
	}
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
	buf.Write(debug.Stack())
	name := filepath.Join(DumpDir, "dump_"+time.Now().Format("20060102-150405"))
	if werr := ioutil.WriteFile(name, buf.Bytes(), 0644); werr != nil {
		logrus.WithError(werr).Error("write dump file error")
	}
	logrus.WithField("obj", err).WithField("dump", name).Error(buf.String())
	if rethrow {
		panic(err)
	}
}
