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
package node

import (
	"time"

	"github.com/spf13/viper"

	"github.com/annchain/schain-manager/consensus/dkg"
	"github.com/annchain/schain-manager/consensus/rotation"
)

const (
	defaultPenalty  = 10
	defaultMinStake = 100
)

type Config struct {
	FreezeDelay        time.Duration
	ComplaintTimeLimit time.Duration
	Penalty            uint64
	MinStake           uint64
	Entropy            string
}

// DefaultConfig is the config used when nothing is set.
func DefaultConfig() Config {
	return Config{
		FreezeDelay:        rotation.DefaultFreezeDelay,
		ComplaintTimeLimit: dkg.DefaultComplaintTimeLimit,
		Penalty:            defaultPenalty,
		MinStake:           defaultMinStake,
		Entropy:            "schain",
	}
}

func ConfigFromViper() Config {
	viper.SetDefault("rotation.delay", rotation.DefaultFreezeDelay)
	viper.SetDefault("dkg.complaint_time_limit", dkg.DefaultComplaintTimeLimit)
	viper.SetDefault("complaint.penalty", defaultPenalty)
	viper.SetDefault("staking.min_stake", defaultMinStake)
	viper.SetDefault("entropy.seed", "schain")
	return Config{
		FreezeDelay:        viper.GetDuration("rotation.delay"),
		ComplaintTimeLimit: viper.GetDuration("dkg.complaint_time_limit"),
		Penalty:            viper.GetUint64("complaint.penalty"),
		MinStake:           viper.GetUint64("staking.min_stake"),
		Entropy:            viper.GetString("entropy.seed"),
	}
}
