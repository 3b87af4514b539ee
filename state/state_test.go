// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-network/meridian/kv"
	"github.com/meridian-network/meridian/meridian"
)

func TestStorageRoundTrip(t *testing.T) {
	st := New(kv.NewMem())
	addr := meridian.BytesToAddress([]byte("engine"))
	key := meridian.Blake2b([]byte("k"))

	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	value := meridian.Blake2b([]byte("v"))
	st.SetStorage(addr, key, value)

	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// zero value deletes
	st.SetStorage(addr, key, meridian.Bytes32{})
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestCheckpointRevert(t *testing.T) {
	st := New(kv.NewMem())
	addr := meridian.BytesToAddress([]byte("engine"))
	key := meridian.Blake2b([]byte("k"))
	v1 := meridian.Blake2b([]byte("v1"))
	v2 := meridian.Blake2b([]byte("v2"))

	st.SetStorage(addr, key, v1)

	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, v2)
	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	st.RevertTo(cp)
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestCommitPersists(t *testing.T) {
	store := kv.NewMem()

	st := New(store)
	addr := meridian.BytesToAddress([]byte("engine"))
	key := meridian.Blake2b([]byte("k"))
	value := meridian.Blake2b([]byte("v"))
	st.SetStorage(addr, key, value)
	require.NoError(t, st.Commit())

	// a fresh state over the same store sees the committed value
	st2 := New(store)
	got, err := st2.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestEncodeDecodeStorage(t *testing.T) {
	st := New(kv.NewMem())
	addr := meridian.BytesToAddress([]byte("engine"))
	key := meridian.Blake2b([]byte("rec"))

	type record struct {
		A uint64
		B []byte
	}
	want := record{42, []byte("payload")}

	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(&want)
	}))

	var got record
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &got)
	}))
	assert.Equal(t, want, got)
}
