// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package reconnect

import (
	"fmt"

	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// NewHashListener creates the hash listener driving the persistence side of
// a learner's re-hashing pass. It is a regular flush listener targeting the
// learner's data source, with the remover's delete stream folded into every
// flushed batch. The given bounds are the leaf path bounds announced by the
// remote side, the bounds of the tree state being synchronized to.
func NewHashListener[K comparable, V any](
	source virtual.DataSource[K, V],
	firstLeafPath, lastLeafPath virtual.Path,
	remover *NodeRemover[K, V],
	config virtual.Config,
) (*virtual.FlushListener[K, V], error) {
	if remover == nil {
		return nil, fmt.Errorf("node remover must not be nil")
	}
	return virtual.NewFlushListenerWithRemovals[K, V](source, firstLeafPath, lastLeafPath, remover, config)
}
