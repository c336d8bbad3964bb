package staking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	l := NewLedger(100)
	require.False(t, l.IsEligible(1))

	l.SetValidator(Validator{ID: 1, Stake: 150, Enabled: true})
	l.SetValidator(Validator{ID: 2, Stake: 500, Enabled: false})
	require.True(t, l.IsEligible(1))
	require.False(t, l.IsEligible(2))

	l.HandleSlash(1, 60)
	require.False(t, l.IsEligible(1))
	v, ok := l.Validator(1)
	require.True(t, ok)
	require.Equal(t, uint64(90), v.Stake)
	require.Equal(t, uint64(60), v.Slashed)

	l.HandleSlash(1, 1000)
	v, _ = l.Validator(1)
	require.Equal(t, uint64(0), v.Stake)
	l.HandleSlash(3, 1)
	require.Equal(t, uint64(3), l.Slashes())
}
