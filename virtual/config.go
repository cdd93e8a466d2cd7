// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package virtual

import (
	"runtime"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

const (
	// DefaultFlushInterval is the number of hashed nodes after which a
	// flush listener hands a batch over to its data source.
	DefaultFlushInterval = 10_000

	// DisabledFlushInterval turns intermediate flushing off entirely. A
	// listener configured with it accumulates the whole pass and flushes
	// once at completion.
	DisabledFlushInterval = -1

	// DefaultMaxInFlight is the default bound on outstanding requests of a
	// learner during tree synchronization.
	DefaultMaxInFlight = 1024
)

// Config bundles the tuning options of tree hashing and flushing. The zero
// value is a valid configuration selecting defaults for every option.
type Config struct {
	// Algorithm selects the node digest function. Defaults to SHA-384.
	Algorithm common.HashAlgorithm

	// HasherThreads is the number of goroutines hashing nodes of one rank
	// in parallel. Values below 1 select the number of available CPUs.
	HasherThreads int

	// FlushInterval is the number of hashed nodes after which an
	// intermediate flush is triggered. Zero selects DefaultFlushInterval,
	// negative values disable intermediate flushing altogether. Hashing
	// passes shorter than the interval result in a single flush at
	// completion.
	FlushInterval int

	// Metrics receives counters of hashing and flushing progress. May be
	// nil to disable collection.
	Metrics *Metrics
}

// normalized returns a copy of the configuration with all unset options
// replaced by their defaults.
func (c Config) normalized() Config {
	if c.Algorithm.Name == "" {
		c.Algorithm = common.Sha384Hashing
	}
	if c.HasherThreads < 1 {
		c.HasherThreads = runtime.NumCPU()
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.FlushInterval < 0 {
		// An interval of zero never triggers an intermediate flush.
		c.FlushInterval = 0
	}
	return c
}
