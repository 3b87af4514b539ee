// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for state databases",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path of the genesis config file (yaml)",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "expose prometheus metrics on the API address",
	}
	subsidyFlag = cli.StringFlag{
		Name:  "subsidy",
		Value: "0",
		Usage: "validator subsidy for the epoch",
	}
	computationChargeFlag = cli.StringFlag{
		Name:  "computation-charge",
		Value: "0",
		Usage: "computation charge collected during the epoch",
	}
	computationBurnedFlag = cli.StringFlag{
		Name:  "computation-burned",
		Value: "0",
		Usage: "portion of the computation charge to burn",
	}
)
