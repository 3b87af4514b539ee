// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP surface of a meridian node.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/meridian-network/meridian/api/staking"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/log"
	"github.com/meridian-network/meridian/metrics"
)

var logger = log.WithContext("pkg", "api")

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins string
	MetricsOn      bool
}

// New assembles the handler serving the staking queries and, optionally,
// the metrics endpoint.
func New(stk *staker.Staker, opts Options) http.Handler {
	router := mux.NewRouter()
	staking.New(stk).Mount(router, "/staking")
	if opts.MetricsOn {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	}

	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	logger.Debug("api handler assembled", "origins", opts.AllowedOrigins)
	return handler
}
