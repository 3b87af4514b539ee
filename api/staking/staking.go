// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking exposes read-only queries over the validator set: active
// validators, the committee, per-pool exchange-rate history, reporter sets
// and aggregate supply figures.
package staking

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/meridian-network/meridian/api/utils"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/meridian"
)

// maxRateRange bounds one rate-history response.
const maxRateRange = 1000

type Staking struct {
	staker *staker.Staker
}

func New(staker *staker.Staker) *Staking {
	return &Staking{staker}
}

func (s *Staking) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	active, err := s.staker.ActiveValidators()
	if err != nil {
		return err
	}
	out, err := s.convertAll(active)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetCandidates(w http.ResponseWriter, _ *http.Request) error {
	candidates, err := s.staker.Candidates()
	if err != nil {
		return err
	}
	out, err := s.convertAll(candidates)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) convertAll(addrs []meridian.Address) ([]*Validator, error) {
	out := make([]*Validator, 0, len(addrs))
	for _, addr := range addrs {
		v, err := s.staker.Validator(addr)
		if err != nil {
			return nil, err
		}
		pool, err := s.staker.Pools().Get(v.PoolID)
		if err != nil {
			return nil, err
		}
		out = append(out, convertValidator(v, pool))
	}
	return out, nil
}

func (s *Staking) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	addr, err := meridian.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	v, err := s.staker.Validator(*addr)
	if err != nil {
		if errors.Is(err, staker.ErrValidatorNotFound) {
			return utils.NotFound(err)
		}
		return err
	}
	pool, err := s.staker.Pools().Get(v.PoolID)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertValidator(v, pool))
}

func (s *Staking) handleGetReporters(w http.ResponseWriter, req *http.Request) error {
	addr, err := meridian.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	reporters, err := s.staker.Reporters(*addr)
	if err != nil {
		return err
	}
	if reporters == nil {
		reporters = []meridian.Address{}
	}
	return utils.WriteJSON(w, reporters)
}

func (s *Staking) handleGetCommittee(w http.ResponseWriter, _ *http.Request) error {
	members, err := s.staker.CommitteeMembers()
	if err != nil {
		return err
	}
	out := make([]*CommitteeMember, len(members))
	for i, m := range members {
		out[i] = &CommitteeMember{
			Address:        m.Address,
			Stake:          m.Stake.String(),
			VotingPowerBps: m.VotingPowerBps,
		}
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetRates(w http.ResponseWriter, req *http.Request) error {
	poolID, err := meridian.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	if _, err := s.staker.Pools().Get(poolID); err != nil {
		return utils.NotFound(err)
	}

	to, err := s.queryEpoch(req, "to")
	if err != nil {
		return err
	}
	if to == nil {
		current, err := s.staker.CurrentEpoch()
		if err != nil {
			return err
		}
		to = &current
	}
	from, err := s.queryEpoch(req, "from")
	if err != nil {
		return err
	}
	if from == nil {
		f := uint64(0)
		if *to >= maxRateRange {
			f = *to - maxRateRange + 1
		}
		from = &f
	}
	if *from > *to {
		return utils.BadRequest(errors.New("from exceeds to"))
	}
	if *to-*from+1 > maxRateRange {
		return utils.BadRequest(errors.New("epoch range too wide"))
	}

	// Epochs with no snapshot are simply absent from the answer.
	out := make([]*RateSnapshot, 0)
	for epoch := *from; epoch <= *to; epoch++ {
		rate, err := s.staker.Pools().RateAt(poolID, epoch)
		if err != nil {
			continue
		}
		out = append(out, &RateSnapshot{
			Epoch:       epoch,
			ShareSupply: rate.ShareSupply.String(),
			Value:       rate.Value.String(),
		})
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) queryEpoch(req *http.Request, name string) (*uint64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &n, nil
}

func (s *Staking) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	epoch, err := s.staker.CurrentEpoch()
	if err != nil {
		return err
	}
	supply, err := s.staker.TotalSupply()
	if err != nil {
		return err
	}
	stake, err := s.staker.TotalActiveStake()
	if err != nil {
		return err
	}
	burned, err := s.staker.TotalBurned()
	if err != nil {
		return err
	}
	rewards, err := s.staker.TotalRewardsDistributed()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Totals{
		Epoch:                   epoch,
		TotalSupply:             supply.String(),
		TotalActiveStake:        stake.String(),
		TotalBurned:             burned.String(),
		TotalRewardsDistributed: rewards.String(),
	})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/validators").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidators))
	sub.Path("/validators/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidator))
	sub.Path("/validators/{address}/reporters").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetReporters))
	sub.Path("/candidates").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidates))
	sub.Path("/committee").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetCommittee))
	sub.Path("/pools/{id}/rates").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetRates))
	sub.Path("/totals").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotals))
}
