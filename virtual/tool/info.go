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

	"github.com/urfave/cli/v2"

	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

var Info = cli.Command{
	Action:    info,
	Name:      "info",
	Usage:     "lists information about a tree directory",
	ArgsUsage: "<directory>",
}

func info(context *cli.Context) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing directory storing the tree")
	}
	dir := context.Args().Get(0)

	source, err := openExistingSource(dir)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, source.Close())
	}()

	firstLeafPath, lastLeafPath, err := source.Bounds()
	if err != nil {
		return err
	}

	fmt.Printf("Directory contains a virtual tree with the following properties:\n")
	if firstLeafPath == virtual.InvalidPath {
		fmt.Printf("\tLeaves:     none\n")
	} else {
		fmt.Printf("\tLeaf paths: [%d, %d]\n", firstLeafPath, lastLeafPath)
		fmt.Printf("\tLeaves:     %d\n", virtual.LeafCountOf(firstLeafPath, lastLeafPath))
	}

	rootHash, err := virtual.RootHashOf[uint64, []byte](source)
	switch {
	case errors.Is(err, virtual.ErrMissingHash):
		fmt.Printf("\tRoot hash:  missing\n")
	case err != nil:
		return err
	default:
		fmt.Printf("\tRoot hash:  %v\n", rootHash)
	}
	return nil
}
