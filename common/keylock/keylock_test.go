package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annchain/schain-manager/types"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	k := New()
	g := types.GroupIDFromName("g")
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock(g)
			c := counter
			c++
			counter = c
			k.Unlock(g)
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Equal(t, 0, k.Len())
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	k := New()
	a := types.GroupIDFromName("a")
	b := types.GroupIDFromName("b")
	k.Lock(a)
	done := make(chan struct{})
	go func() {
		k.Lock(b)
		k.Unlock(b)
		close(done)
	}()
	<-done
	require.Equal(t, 1, k.Len())
	k.Unlock(a)
	require.Panics(t, func() { k.Unlock(a) })
}
