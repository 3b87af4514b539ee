// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/meridian-network/meridian/builtin"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/kv"
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

// genesisAppliedKey marks a database whose genesis state was written.
var genesisAppliedKey = []byte("genesis-applied")

// genesisConfig is the user supplied genesis file. Amounts are decimal
// strings since yaml has no arbitrary precision integers.
type genesisConfig struct {
	TotalSupply string             `yaml:"totalSupply"`
	Params      map[string]string  `yaml:"params"`
	Validators  []genesisValidator `yaml:"validators"`
}

type genesisValidator struct {
	Identity       string `yaml:"identity"`
	OperationCap   string `yaml:"operationCap"`
	CommissionBps  uint16 `yaml:"commissionBps"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	NetworkAddress string `yaml:"networkAddress"`
	Stake          string `yaml:"stake"`
}

var genesisParamKeys = map[string]meridian.Bytes32{
	"maxCommitteeSize":      meridian.KeyMaxCommitteeSize,
	"minJoiningStake":       meridian.KeyMinJoiningStake,
	"lowStakeThreshold":     meridian.KeyLowStakeThreshold,
	"veryLowStakeThreshold": meridian.KeyVeryLowStakeThreshold,
	"lowStakeGracePeriod":   meridian.KeyLowStakeGracePeriod,
	"rewardSlashingRate":    meridian.KeyRewardSlashingRate,
	"reportingThreshold":    meridian.KeyReportingThreshold,
	"maxCommissionRate":     meridian.KeyMaxCommissionRate,
}

// applyGenesis seeds a fresh database from the genesis config file and
// commits the result. It is a no-op on a database that was already seeded.
func applyGenesis(path string, store kv.Store, st *state.State, stk *staker.Staker) error {
	applied, err := store.Has(genesisAppliedKey)
	if err != nil {
		return errors.WithMessage(err, "check genesis marker")
	}
	if applied {
		return nil
	}
	if path == "" {
		return errors.New("fresh database requires --genesis")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithMessage(err, "read genesis file")
	}
	var gen genesisConfig
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return errors.WithMessage(err, "parse genesis file")
	}

	if err := seedGenesis(&gen, st, stk); err != nil {
		return err
	}
	if err := st.Commit(); err != nil {
		return errors.WithMessage(err, "commit genesis state")
	}
	if err := store.Put(genesisAppliedKey, []byte{1}); err != nil {
		return errors.WithMessage(err, "write genesis marker")
	}
	logger.Info("genesis applied", "validators", len(gen.Validators))
	return nil
}

func seedGenesis(gen *genesisConfig, st *state.State, stk *staker.Staker) error {
	supply, err := parseAmount(gen.TotalSupply)
	if err != nil {
		return errors.WithMessage(err, "totalSupply")
	}
	if err := stk.MintSupply(supply); err != nil {
		return err
	}

	gov := builtin.Params(st)
	for name, raw := range gen.Params {
		key, ok := genesisParamKeys[name]
		if !ok {
			return errors.Errorf("unknown genesis param %q", name)
		}
		value, err := parseAmount(raw)
		if err != nil {
			return errors.WithMessagef(err, "param %q", name)
		}
		if err := gov.Set(key, value); err != nil {
			return err
		}
	}

	for _, v := range gen.Validators {
		identity, err := meridian.ParseAddress(v.Identity)
		if err != nil {
			return errors.WithMessagef(err, "validator %q", v.Identity)
		}
		cap := *identity
		if v.OperationCap != "" {
			parsed, err := meridian.ParseAddress(v.OperationCap)
			if err != nil {
				return errors.WithMessagef(err, "validator %q cap", v.Identity)
			}
			cap = *parsed
		}
		stake, err := parseAmount(v.Stake)
		if err != nil {
			return errors.WithMessagef(err, "validator %q stake", v.Identity)
		}

		md := staker.Metadata{
			Name:           v.Name,
			Description:    v.Description,
			NetworkAddress: v.NetworkAddress,
		}
		if err := stk.AddValidatorCandidate(*identity, cap, v.CommissionBps, md); err != nil {
			return errors.WithMessagef(err, "register validator %q", v.Identity)
		}
		if stake.Sign() > 0 {
			if _, err := stk.StakeWithValidator(*identity, *identity, stake); err != nil {
				return errors.WithMessagef(err, "stake validator %q", v.Identity)
			}
		}
		if err := stk.RequestAddValidator(*identity); err != nil {
			return errors.WithMessagef(err, "activate validator %q", v.Identity)
		}
	}

	// Genesis validators join as pending-active; one zero-reward epoch
	// turn puts them in the active set and seats the first committee.
	if len(gen.Validators) > 0 {
		if _, err := stk.AdvanceEpoch(&staker.RewardInput{
			ValidatorSubsidy:        new(big.Int),
			ComputationCharge:       new(big.Int),
			ComputationChargeBurned: new(big.Int),
		}); err != nil {
			return errors.WithMessage(err, "seat genesis committee")
		}
	}
	return nil
}
