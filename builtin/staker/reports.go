// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/meridian-network/meridian/meridian"
)

// ReportValidator records a misbehavior report against the target. Both the
// reporter resolved through the operation cap and the target must sit in the
// current committee. Repeated reports by the same reporter are no-ops.
func (s *Staker) ReportValidator(reporterCap, target meridian.Address) error {
	reporter, err := s.validatorByCap(reporterCap)
	if err != nil {
		return err
	}
	if reporter.Address == target {
		return ErrCannotReportOneself
	}
	if err := s.requireInCommittee(reporter.Address, target); err != nil {
		return err
	}
	reporters, err := s.sto.reports.Get(target)
	if err != nil {
		return err
	}
	for _, r := range reporters {
		if r == reporter.Address {
			return nil
		}
	}
	if err := s.sto.reports.Set(target, append(reporters, reporter.Address)); err != nil {
		return err
	}
	logger.Info("validator reported", "reporter", reporter.Address, "target", target)
	return nil
}

// UndoReportValidator removes the reporter's report against the target.
func (s *Staker) UndoReportValidator(reporterCap, target meridian.Address) error {
	reporter, err := s.validatorByCap(reporterCap)
	if err != nil {
		return err
	}
	reporters, err := s.sto.reports.Get(target)
	if err != nil {
		return err
	}
	for i, r := range reporters {
		if r == reporter.Address {
			remaining := append(reporters[:i:i], reporters[i+1:]...)
			if len(remaining) == 0 {
				return s.sto.reports.Delete(target)
			}
			return s.sto.reports.Set(target, remaining)
		}
	}
	return ErrReportRecordNotFound
}

// Reporters returns the identities that currently report the target.
func (s *Staker) Reporters(target meridian.Address) ([]meridian.Address, error) {
	return s.sto.reports.Get(target)
}

func (s *Staker) requireInCommittee(addrs ...meridian.Address) error {
	committee, err := s.sto.committee.Get()
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		found := false
		for _, member := range committee {
			if member == addr {
				found = true
				break
			}
		}
		if !found {
			return ErrNotInCommittee
		}
	}
	return nil
}

// pruneReports drops report records whose target left the committee and
// strips reporters that left it, so stale references never dangle into the
// next epoch.
func (s *Staker) pruneReports(oldCommittee, newCommittee []meridian.Address) error {
	inNew := make(map[meridian.Address]bool, len(newCommittee))
	for _, addr := range newCommittee {
		inNew[addr] = true
	}
	for _, target := range oldCommittee {
		if !inNew[target] {
			if err := s.sto.reports.Delete(target); err != nil {
				return err
			}
			continue
		}
		reporters, err := s.sto.reports.Get(target)
		if err != nil {
			return err
		}
		if len(reporters) == 0 {
			continue
		}
		kept := reporters[:0:0]
		for _, r := range reporters {
			if inNew[r] {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(reporters) {
			continue
		}
		if len(kept) == 0 {
			if err := s.sto.reports.Delete(target); err != nil {
				return err
			}
			continue
		}
		if err := s.sto.reports.Set(target, kept); err != nil {
			return err
		}
	}
	return nil
}
