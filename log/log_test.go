// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(slog.NewTextHandler(&buf, nil))
	defer SetDefault(slog.NewTextHandler(&buf, nil))

	logger := WithContext("pkg", "staker")
	logger.Info("added validator", "stake", big.NewInt(1000))

	out := buf.String()
	assert.Contains(t, out, "pkg=staker")
	assert.Contains(t, out, "added validator")
	assert.Contains(t, out, "stake=1000")
}

func TestNormalizeBigNumbers(t *testing.T) {
	ctx := normalize([]any{"a", big.NewInt(7), "b", uint256.NewInt(9)})
	assert.Equal(t, "7", ctx[1])
	assert.Equal(t, "9", ctx[3])
}
