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
package dkg

import (
	"fmt"

	"github.com/annchain/kyber/v3"
	"github.com/annchain/kyber/v3/pairing/bn256"
	"github.com/annchain/kyber/v3/share"

	"github.com/annchain/schain-manager/types"
)

const (
	ShareLength     = 32
	PublicKeyLength = 64
)

// Contribution is the secret share a dealer sends to one member, encrypted
// under an ephemeral G1 key.
type Contribution struct {
	PublicKey []byte `json:"public_key"`
	Share     []byte `json:"share"`
}

// Payload is what every member broadcasts once per round: the commitments
// of its secret polynomial and one contribution per member.
type Payload struct {
	VerificationVector [][]byte       `json:"verification_vector"`
	Contributions      []Contribution `json:"contributions"`
}

// Threshold is the polynomial degree + 1 for a group of n.
func Threshold(n int) int {
	return (2*n + 1) / 3
}

// Hash is the digest stored for the pre-response check.
func (p *Payload) Hash() []byte {
	data := make([][]byte, 0, len(p.VerificationVector)+2*len(p.Contributions))
	data = append(data, p.VerificationVector...)
	for _, c := range p.Contributions {
		data = append(data, c.PublicKey, c.Share)
	}
	return types.Keccak256(data...)
}

// Validate checks the payload shape for a group of n.
func (p *Payload) Validate(suite *bn256.Suite, n int) error {
	if p == nil {
		return fmt.Errorf("empty payload")
	}
	if t := Threshold(n); len(p.VerificationVector) != t {
		return fmt.Errorf("verification vector has %d points, need %d", len(p.VerificationVector), t)
	}
	if _, err := DecodeVerificationVector(p.VerificationVector); err != nil {
		return err
	}
	if len(p.Contributions) != n {
		return fmt.Errorf("%d contributions for %d members", len(p.Contributions), n)
	}
	for i, c := range p.Contributions {
		if len(c.Share) != ShareLength {
			return fmt.Errorf("contribution %d: share is %d bytes", i, len(c.Share))
		}
		if len(c.PublicKey) != PublicKeyLength {
			return fmt.Errorf("contribution %d: public key is %d bytes", i, len(c.PublicKey))
		}
		if err := suite.G1().Point().UnmarshalBinary(c.PublicKey); err != nil {
			return fmt.Errorf("contribution %d: bad public key: %v", i, err)
		}
	}
	return nil
}

// DecodeVerificationVector decodes G2 commitments.
func DecodeVerificationVector(vv [][]byte) ([]kyber.Point, error) {
	points := make([]kyber.Point, len(vv))
	for i, b := range vv {
		p, err := bn256.UnmarshalBinaryPointG2(b)
		if err != nil {
			return nil, fmt.Errorf("verification vector point %d: %v", i, err)
		}
		points[i] = p
	}
	return points, nil
}

// VerifyShare is the Feldman check: share is the scalar dealt to the member
// at index, it must match the public polynomial evaluated there.
func VerifyShare(suite *bn256.Suite, vv [][]byte, index int, shareBytes []byte) (bool, error) {
	commits, err := DecodeVerificationVector(vv)
	if err != nil {
		return false, err
	}
	if len(commits) == 0 {
		return false, fmt.Errorf("empty verification vector")
	}
	s := suite.Scalar()
	if err := s.UnmarshalBinary(shareBytes); err != nil {
		return false, fmt.Errorf("bad share: %v", err)
	}
	pubPoly := share.NewPubPoly(suite, suite.Point().Base(), commits)
	expected := pubPoly.Eval(index).V
	return suite.Point().Mul(s, nil).Equal(expected), nil
}
