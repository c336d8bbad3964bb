package goroutine

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Counts(t *testing.T) {
	var wg sync.WaitGroup
	release := make(chan struct{})
	wg.Add(1)
	New(func() {
		wg.Done()
		<-release
	})
	wg.Wait()
	require.Equal(t, int32(1), Running())
	close(release)
	require.Eventually(t, func() bool { return Running() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWithRecover_Dumps(t *testing.T) {
	dir, err := ioutil.TempDir("", "dump")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	DumpDir = dir
	defer func() { DumpDir = "" }()

	done := make(chan struct{})
	WithRecover(func() {
		defer close(done)
		panic("boom")
	})
	<-done
	require.Eventually(t, func() bool {
		files, _ := filepath.Glob(filepath.Join(dir, "dump_*"))
		return len(files) == 1
	}, time.Second, 10*time.Millisecond)
}
