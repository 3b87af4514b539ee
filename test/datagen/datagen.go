// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random fixtures for tests.
package datagen

import (
	"crypto/rand"
	"math/big"

	"github.com/meridian-network/meridian/meridian"
)

// RandBytes returns n random bytes.
func RandBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// RandAddress returns a random address.
func RandAddress() meridian.Address {
	return meridian.BytesToAddress(RandBytes(20))
}

// RandBytes32 returns a random 32-byte value.
func RandBytes32() meridian.Bytes32 {
	return meridian.BytesToBytes32(RandBytes(32))
}

// RandBigInt returns a uniformly random integer in [0, max).
func RandBigInt(max *big.Int) *big.Int {
	n, _ := rand.Int(rand.Reader, max)
	return n
}
