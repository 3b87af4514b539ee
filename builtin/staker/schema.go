// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/meridian-network/meridian/builtin/storage"
	"github.com/meridian-network/meridian/meridian"
)

// schema is the storage layout of the validator set. Address lists stay
// small (bounded by the validator count), so each partition is one record.
type schema struct {
	validators *storage.Mapping[meridian.Address, *Validator]
	// capIndex maps an operation cap to the identity it authorizes.
	capIndex *storage.Mapping[meridian.Address, meridian.Address]
	// inactivePools retains pool-id to identity lookups permanently.
	inactivePools *storage.Mapping[meridian.Bytes32, meridian.Address]
	// reports maps a target identity to its reporter identities.
	reports *storage.Mapping[meridian.Address, []meridian.Address]

	candidates *storage.Value[[]meridian.Address]
	active     *storage.Value[[]meridian.Address]
	committee  *storage.Value[[]meridian.Address]

	epoch            *storage.Uint256
	totalSupply      *storage.Uint256
	totalActiveStake *storage.Uint256
	totalBurned      *storage.Uint256
	totalRewards     *storage.Uint256
}

func newSchema(sctx *storage.Context) *schema {
	return &schema{
		validators:    storage.NewMapping[meridian.Address, *Validator](sctx, storage.NameToSlot("validators")),
		capIndex:      storage.NewMapping[meridian.Address, meridian.Address](sctx, storage.NameToSlot("cap-index")),
		inactivePools: storage.NewMapping[meridian.Bytes32, meridian.Address](sctx, storage.NameToSlot("inactive-pools")),
		reports:       storage.NewMapping[meridian.Address, []meridian.Address](sctx, storage.NameToSlot("reports")),

		candidates: storage.NewValue[[]meridian.Address](sctx, storage.NameToSlot("candidate-set")),
		active:     storage.NewValue[[]meridian.Address](sctx, storage.NameToSlot("active-set")),
		committee:  storage.NewValue[[]meridian.Address](sctx, storage.NameToSlot("committee")),

		epoch:            storage.NewUint256(sctx, storage.NameToSlot("current-epoch")),
		totalSupply:      storage.NewUint256(sctx, storage.NameToSlot("total-supply")),
		totalActiveStake: storage.NewUint256(sctx, storage.NameToSlot("total-active-stake")),
		totalBurned:      storage.NewUint256(sctx, storage.NameToSlot("total-burned")),
		totalRewards:     storage.NewUint256(sctx, storage.NameToSlot("total-rewards")),
	}
}

func (s *schema) getValidator(addr meridian.Address) (*Validator, error) {
	v, err := s.validators.Get(addr)
	if err != nil {
		return nil, err
	}
	if v.IsEmpty() {
		return nil, ErrValidatorNotFound
	}
	return v, nil
}

func addToSet(set *storage.Value[[]meridian.Address], addr meridian.Address) error {
	list, err := set.Get()
	if err != nil {
		return err
	}
	for _, a := range list {
		if a == addr {
			return nil
		}
	}
	return set.Set(append(list, addr))
}

func removeFromSet(set *storage.Value[[]meridian.Address], addr meridian.Address) error {
	list, err := set.Get()
	if err != nil {
		return err
	}
	for i, a := range list {
		if a == addr {
			return set.Set(append(list[:i:i], list[i+1:]...))
		}
	}
	return nil
}
