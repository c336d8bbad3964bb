package mylog

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	require.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
}

func TestLevelHook(t *testing.T) {
	dir, err := ioutil.TempDir("", "mylog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	logger := logrus.New()
	logger.Out = ioutil.Discard
	logger.AddHook(LevelHook(dir, &logrus.JSONFormatter{}))
	logger.Warn("rotated")

	data, err := ioutil.ReadFile(filepath.Join(dir, "warning.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "rotated")
}

func TestLogstashHook_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	_, err = LogstashHook(addr, "schain")
	require.Error(t, err)
}
