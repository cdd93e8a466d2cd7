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
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

var Fill = cli.Command{
	Action:    addCpuProfiling(fill),
	Name:      "fill",
	Usage:     "creates a fully hashed tree of generated leaf records",
	ArgsUsage: "<directory>",
	Flags: []cli.Flag{
		&numLeavesFlag,
		&valueSizeFlag,
		&seedFlag,
		&algorithmFlag,
		&threadsFlag,
		&flushIntervalFlag,
	},
}

var (
	numLeavesFlag = cli.Int64Flag{
		Name:  "leaves",
		Usage: "the number of leaf records to generate",
		Value: 1_000_000,
	}
	valueSizeFlag = cli.IntFlag{
		Name:  "value-size",
		Usage: "the number of value bytes per leaf record",
		Value: 32,
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "the seed of the value generator",
		Value: 0,
	}
)

func fill(context *cli.Context) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing directory for the tree")
	}
	dir := context.Args().Get(0)
	numLeaves := context.Int64(numLeavesFlag.Name)
	valueSize := context.Int(valueSizeFlag.Name)
	if numLeaves < 0 || valueSize < 0 {
		return fmt.Errorf("leaf count and value size must not be negative")
	}
	config, err := hashingConfig(context)
	if err != nil {
		return err
	}

	source, err := openSource(dir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, source.Close())
	}()
	if first, _, err := source.Bounds(); err != nil {
		return err
	} else if first != virtual.InvalidPath {
		return fmt.Errorf("directory %s already contains a tree", dir)
	}

	log.Printf("Generating %d leaves ...", numLeaves)
	firstLeafPath := virtual.FirstLeafPathFor(numLeaves)
	lastLeafPath := virtual.LastLeafPathFor(numLeaves)
	random := rand.New(rand.NewSource(context.Int64(seedFlag.Name)))
	leaves := make([]virtual.LeafRecord[uint64, []byte], numLeaves)
	for i := range leaves {
		value := make([]byte, valueSize)
		random.Read(value)
		leaves[i] = virtual.LeafRecord[uint64, []byte]{
			Path:  firstLeafPath + virtual.Path(i),
			Key:   uint64(i),
			Value: value,
		}
	}

	hasher, err := virtual.NewHasher[uint64, []byte](common.Uint64Serializer{}, common.BytesSerializer{}, config)
	if err != nil {
		return err
	}
	listener, err := virtual.NewFlushListener[uint64, []byte](source, firstLeafPath, lastLeafPath, config)
	if err != nil {
		return err
	}

	log.Printf("Hashing the tree using %v ...", config.Algorithm)
	ctx := interrupt.Register(context.Context)
	start := time.Now()
	rootHash, err := hasher.HashDirtyLeaves(ctx, common.NewSliceIterator(leaves), firstLeafPath, lastLeafPath, nil, listener)
	if err != nil {
		return err
	}

	snapshot := config.Metrics.Snapshot()
	log.Printf("Created a tree of %d leaves in %v", numLeaves, time.Since(start).Round(time.Millisecond))
	log.Printf("\tNodes hashed: %d", snapshot.NodesHashed)
	log.Printf("\tFlushes:      %d", snapshot.Flushes)
	log.Printf("\tRoot hash:    %v", rootHash)
	return nil
}
