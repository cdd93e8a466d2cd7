// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/suiyuan1314/hedera-services-sub000/backend/datasource/ldb"
	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

var (
	algorithmFlag = cli.StringFlag{
		Name:  "algorithm",
		Usage: "the node hash algorithm, one of SHA-384, SHA3-384, BLAKE3-384",
		Value: common.Sha384Hashing.Name,
	}
	threadsFlag = cli.IntFlag{
		Name:  "threads",
		Usage: "the number of hashing goroutines, defaults to the number of CPUs",
		Value: 0,
	}
	flushIntervalFlag = cli.IntFlag{
		Name:  "flush-interval",
		Usage: "the number of hashed nodes between intermediate flushes",
		Value: virtual.DefaultFlushInterval,
	}
)

// treeSource is the record store shape handled by this toolbox: 8 byte keys
// mapped to arbitrary byte-string values.
type treeSource = ldb.DataSource[uint64, []byte]

func openSource(directory string) (*treeSource, error) {
	return ldb.OpenDataSource[uint64, []byte](directory, common.Uint64Serializer{}, common.BytesSerializer{})
}

// openExistingSource refuses to implicitly create a tree in a directory not
// holding one yet.
func openExistingSource(directory string) (*treeSource, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot open tree directory: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("directory %s does not contain a tree", directory)
	}
	return openSource(directory)
}

func hashingConfig(context *cli.Context) (virtual.Config, error) {
	name := context.String(algorithmFlag.Name)
	algorithm, found := common.HashAlgorithmByName(name)
	if !found {
		return virtual.Config{}, fmt.Errorf("unknown hash algorithm %q", name)
	}
	return virtual.Config{
		Algorithm:     algorithm,
		HasherThreads: context.Int(threadsFlag.Name),
		FlushInterval: context.Int(flushIntervalFlag.Name),
		Metrics:       &virtual.Metrics{},
	}, nil
}
