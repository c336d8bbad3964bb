package dkg

import (
	"github.com/annchain/kyber/v3/pairing/bn256"
	"github.com/annchain/kyber/v3/share"
)

// Dealer holds one member's secret polynomial and produces its broadcast.
// Shares are left in the clear; encryption toward the recipient is the
// member client's job.
type Dealer struct {
	suite *bn256.Suite
	poly  *share.PriPoly
	n     int
}

func NewDealer(n int) *Dealer {
	suite := bn256.NewSuiteG2()
	return &Dealer{
		suite: suite,
		poly:  share.NewPriPoly(suite, Threshold(n), nil, suite.RandomStream()),
		n:     n,
	}
}

func (d *Dealer) Payload() (*Payload, error) {
	_, commits := d.poly.Commit(d.suite.Point().Base()).Info()
	p := &Payload{
		VerificationVector: make([][]byte, len(commits)),
		Contributions:      make([]Contribution, d.n),
	}
	for i, c := range commits {
		b, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		p.VerificationVector[i] = b
	}
	for i := 0; i < d.n; i++ {
		s, err := d.Share(i)
		if err != nil {
			return nil, err
		}
		pk, err := d.suite.G1().Point().Pick(d.suite.RandomStream()).MarshalBinary()
		if err != nil {
			return nil, err
		}
		p.Contributions[i] = Contribution{PublicKey: pk, Share: s}
	}
	return p, nil
}

// Share returns the scalar dealt to the member at index.
func (d *Dealer) Share(index int) ([]byte, error) {
	return d.poly.Eval(index).V.MarshalBinary()
}
