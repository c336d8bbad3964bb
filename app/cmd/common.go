package cmd

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/annchain/schain-manager/common/files"
	"github.com/annchain/schain-manager/common/utilfuncs"
	"github.com/annchain/schain-manager/mylog"
)

func DumpStack() {
	if err := recover(); err != nil {
		logrus.WithField("obj", err).Error("Fatal error occurred. Program will exit")
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(debug.Stack())
		dumpName := "dump_" + time.Now().Format("20060102-150405")
		if nerr := ioutil.WriteFile(dumpName, buf.Bytes(), 0644); nerr != nil {
			fmt.Println("write dump file error", nerr)
		}
		fmt.Println(buf.String())
		os.Exit(1)
	}
}

// initLogger uses viper to get the log path and level. It should be called by all other commands
func initLogger() {
	doStdout := viper.GetBool("log.stdout")
	doFile := viper.GetBool("log.file")
	logdir := files.FixPrefixPath(viper.GetString("dir.root"), viper.GetString("dir.log"))

	var writers []io.Writer
	if doFile {
		folderPath, err := filepath.Abs(logdir)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", logdir))
		err = os.MkdirAll(folderPath, os.ModePerm)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on creating log dir: %s", folderPath))
		abspath := filepath.Join(folderPath, "run")
		writers = append(writers, mylog.RotateLog(abspath))
		fmt.Println("Will be logged to " + abspath + ".log")
	}
	if doStdout {
		writers = append(writers, os.Stdout)
	}
	switch len(writers) {
	case 0:
		logrus.SetOutput(ioutil.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	logrus.SetLevel(mylog.ParseLevel(viper.GetString("log.level")))

	Formatter := new(logrus.TextFormatter)
	Formatter.ForceColors = doStdout
	Formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	Formatter.FullTimestamp = true
	logrus.StandardLogger().SetFormatter(Formatter)

	if viper.GetBool("log.line_number") {
		logrus.SetReportCaller(true)
	}
	if viper.GetBool("log.multifile_by_level") && doFile {
		logrus.AddHook(mylog.LevelHook(logdir, Formatter))
	}
	if addr := viper.GetString("log.logstash"); addr != "" {
		hook, err := mylog.LogstashHook(addr, "schain")
		if err != nil {
			logrus.WithError(err).Warn("logstash logger is not enabled")
		} else {
			logrus.AddHook(hook)
		}
	}
	logrus.Debug("Logger initialized.")
}

func ensureFolder() {
	root := viper.GetString("dir.root")
	err := files.MkDirIfNotExists(root)
	utilfuncs.PanicIfError(err, "creating root folder")
}
