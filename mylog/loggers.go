// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package mylog

import (
	"net"
	"path/filepath"
	"time"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/annchain/schain-manager/common/utilfuncs"
)

const (
	maxAge       = 7 * 24 * time.Hour
	rotationTime = 24 * time.Hour
)

func RotateLog(abspath string) *rotatelogs.RotateLogs {
	logFile, err := rotatelogs.New(
		abspath+"%Y%m%d%H%M.log",
		rotatelogs.WithLinkName(abspath+".log"),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	utilfuncs.PanicIfError(err, "err init log")
	return logFile
}

// LevelHook writes each level to its own rotating file under logdir.
func LevelHook(logdir string, formatter logrus.Formatter) logrus.Hook {
	writerMap := lfshook.WriterMap{}
	for _, level := range logrus.AllLevels {
		abspath, err := filepath.Abs(filepath.Join(logdir, level.String()))
		utilfuncs.PanicIfError(err, "parse log path")
		writerMap[level] = RotateLog(abspath)
	}
	return lfshook.NewHook(writerMap, formatter)
}

// LogstashHook ships entries to a logstash tcp input at addr.
func LogstashHook(addr string, appName string) (logrus.Hook, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	hook, err := logrustash.NewHookWithConn(conn, appName)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return hook, nil
}

// ParseLevel falls back to info on unknown names.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.WithField("level", name).Warn("unknown log level, set to info")
		return logrus.InfoLevel
	}
	return level
}

func LogInit(level logrus.Level) {
	Formatter := new(logrus.TextFormatter)
	Formatter.TimestampFormat = "15:04:05.000000"
	Formatter.FullTimestamp = true
	Formatter.ForceColors = true
	logrus.SetFormatter(Formatter)
	logrus.SetLevel(level)
}
