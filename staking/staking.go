// Package staking is the validator collaborator: it decides whether a node
// owner may take new schain seats and absorbs slashing penalties.
package staking

import (
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

type Staking interface {
	IsEligible(owner uint64) bool
	HandleSlash(owner uint64, penalty uint64)
}

type Validator struct {
	ID      uint64 `json:"id" yaml:"id"`
	Stake   uint64 `json:"stake" yaml:"stake"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Slashed uint64 `json:"slashed" yaml:"slashed"`
}

// Ledger is an in-memory Staking: owners with at least MinStake that are
// enabled are eligible.
type Ledger struct {
	MinStake uint64

	mu         sync.RWMutex
	validators map[uint64]*Validator
	slashes    atomic.Uint64
}

func NewLedger(minStake uint64) *Ledger {
	return &Ledger{
		MinStake:   minStake,
		validators: make(map[uint64]*Validator),
	}
}

func (l *Ledger) SetValidator(v Validator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vv := v
	l.validators[v.ID] = &vv
}

func (l *Ledger) Validator(id uint64) (Validator, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.validators[id]
	if !ok {
		return Validator{}, false
	}
	return *v, true
}

func (l *Ledger) IsEligible(owner uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.validators[owner]
	return ok && v.Enabled && v.Stake >= l.MinStake
}

// HandleSlash burns up to penalty from the owner's stake.
func (l *Ledger) HandleSlash(owner uint64, penalty uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slashes.Inc()
	v, ok := l.validators[owner]
	if !ok {
		logrus.WithField("owner", owner).Warn("slash for unknown validator")
		return
	}
	if penalty > v.Stake {
		penalty = v.Stake
	}
	v.Stake -= penalty
	v.Slashed += penalty
	logrus.WithField("owner", owner).WithField("penalty", penalty).WithField("stake", v.Stake).Warn("validator slashed")
}

func (l *Ledger) Slashes() uint64 {
	return l.slashes.Load()
}
