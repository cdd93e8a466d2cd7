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
	"time"

	"github.com/urfave/cli/v2"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

var Root = cli.Command{
	Action:    addCpuProfiling(root),
	Name:      "root",
	Usage:     "prints the root hash of a tree",
	ArgsUsage: "<directory>",
	Flags: []cli.Flag{
		&recomputeFlag,
		&algorithmFlag,
		&threadsFlag,
	},
}

var recomputeFlag = cli.BoolFlag{
	Name:  "recompute",
	Usage: "re-hash all leaf records and verify the stored root hash",
}

func root(context *cli.Context) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing directory storing the tree")
	}
	dir := context.Args().Get(0)
	config, err := hashingConfig(context)
	if err != nil {
		return err
	}

	source, err := openExistingSource(dir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, source.Close())
	}()

	stored, storedErr := virtual.RootHashOf[uint64, []byte](source)
	if storedErr != nil && !errors.Is(storedErr, virtual.ErrMissingHash) {
		return storedErr
	}
	if storedErr == nil {
		fmt.Printf("Root hash: %v\n", stored)
	} else {
		fmt.Printf("Root hash: missing\n")
	}
	if !context.Bool(recomputeFlag.Name) {
		return nil
	}

	firstLeafPath, lastLeafPath, err := source.Bounds()
	if err != nil {
		return err
	}
	leaves := make([]virtual.LeafRecord[uint64, []byte], 0, virtual.LeafCountOf(firstLeafPath, lastLeafPath))
	if firstLeafPath != virtual.InvalidPath {
		for path := firstLeafPath; path <= lastLeafPath; path++ {
			record, exists, err := source.LoadLeafRecord(path)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("missing leaf record at path %v", path)
			}
			leaves = append(leaves, record)
		}
	}

	hasher, err := virtual.NewHasher[uint64, []byte](common.Uint64Serializer{}, common.BytesSerializer{}, config)
	if err != nil {
		return err
	}

	log.Printf("Re-hashing %d leaves using %v ...", len(leaves), config.Algorithm)
	ctx := interrupt.Register(context.Context)
	start := time.Now()
	computed, err := hasher.HashDirtyLeaves(ctx, common.NewSliceIterator(leaves), firstLeafPath, lastLeafPath, nil, nil)
	if err != nil {
		return err
	}
	log.Printf("Re-hashed the tree in %v", time.Since(start).Round(time.Millisecond))

	if storedErr != nil {
		return fmt.Errorf("cannot verify, the stored root hash is missing, re-computed %v", computed)
	}
	if computed != stored {
		return fmt.Errorf("root hash mismatch, stored %v, re-computed %v", stored, computed)
	}
	log.Printf("Root hash verified")
	return nil
}
