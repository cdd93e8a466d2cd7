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

	"github.com/suiyuan1314/hedera-services-sub000/backend/datasource/cache"
	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
	"github.com/suiyuan1314/hedera-services-sub000/virtual/reconnect"
)

var Reconnect = cli.Command{
	Action: addCpuProfiling(doReconnect),
	Name:   "reconnect",
	Usage:  "synchronizes an out-of-date tree with an up-to-date one",
	Flags: []cli.Flag{
		&teacherDirFlag,
		&learnerDirFlag,
		&maxInFlightFlag,
		&cacheSizeFlag,
		&algorithmFlag,
		&threadsFlag,
		&flushIntervalFlag,
	},
}

var (
	teacherDirFlag = cli.StringFlag{
		Name:     "teacher-dir",
		Usage:    "the directory of the up-to-date tree",
		Required: true,
	}
	learnerDirFlag = cli.StringFlag{
		Name:     "learner-dir",
		Usage:    "the directory of the tree to synchronize",
		Required: true,
	}
	maxInFlightFlag = cli.IntFlag{
		Name:  "max-in-flight",
		Usage: "the number of outstanding requests kept on the wire",
		Value: virtual.DefaultMaxInFlight,
	}
	cacheSizeFlag = cli.IntFlag{
		Name:  "cache-size",
		Usage: "the number of hashes and leaf records of the up-to-date tree kept in memory, 0 disables the cache",
		Value: 100_000,
	}
)

func doReconnect(context *cli.Context) (err error) {
	hashing, err := hashingConfig(context)
	if err != nil {
		return err
	}

	teacherDir := context.String(teacherDirFlag.Name)
	log.Printf("Opening teacher tree in %v ...", teacherDir)
	teacherSource, err := openExistingSource(teacherDir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, teacherSource.Close())
	}()

	var teachingSource virtual.DataSource[uint64, []byte] = teacherSource
	if cacheSize := context.Int(cacheSizeFlag.Name); cacheSize > 0 {
		teachingSource, err = cache.NewDataSource[uint64, []byte](teacherSource, cacheSize)
		if err != nil {
			return err
		}
	}

	learnerDir := context.String(learnerDirFlag.Name)
	log.Printf("Opening learner tree in %v ...", learnerDir)
	learnerSource, err := openSource(learnerDir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, learnerSource.Close())
	}()

	teacher, err := reconnect.NewTeacher[uint64, []byte](teachingSource, common.Uint64Serializer{}, common.BytesSerializer{})
	if err != nil {
		return err
	}
	learner, err := reconnect.NewLearner[uint64, []byte](learnerSource, common.Uint64Serializer{}, common.BytesSerializer{}, reconnect.Config{
		MaxInFlight: context.Int(maxInFlightFlag.Name),
		Hashing:     hashing,
	})
	if err != nil {
		return err
	}

	ctx := interrupt.Register(context.Context)
	teacherConn, learnerConn := reconnect.NewPipe()
	served := make(chan error, 1)
	go func() {
		served <- teacher.Serve(ctx, teacherConn)
	}()

	log.Printf("Synchronizing ...")
	start := time.Now()
	rootHash, stats, err := learner.Reconnect(ctx, learnerConn)
	if err = errors.Join(err, <-served); err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	snapshot := hashing.Metrics.Snapshot()
	log.Printf("Synchronized the tree in %v", time.Since(start).Round(time.Millisecond))
	log.Printf("\tHashes compared: %d", stats.HashesRequested)
	log.Printf("\tSubtrees pruned: %d", stats.MatchedSubtrees)
	log.Printf("\tLeaves received: %d", stats.LeavesReceived)
	log.Printf("\tLeaves removed:  %d", stats.LeavesRemoved)
	log.Printf("\tFlushes:         %d", snapshot.Flushes)
	log.Printf("\tRoot hash:       %v", rootHash)
	return nil
}
