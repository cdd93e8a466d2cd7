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
	"context"
	"fmt"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// Teacher serves the content of a data source to reconnecting learners, one
// connection per Serve call. Concurrent sessions are fine as long as the
// served data source is not modified while any of them is running.
type Teacher[K comparable, V any] struct {
	source          virtual.DataSource[K, V]
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
}

func NewTeacher[K comparable, V any](
	source virtual.DataSource[K, V],
	keySerializer common.Serializer[K],
	valueSerializer common.Serializer[V],
) (*Teacher[K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("data source must not be nil")
	}
	if keySerializer == nil || valueSerializer == nil {
		return nil, fmt.Errorf("serializers must not be nil")
	}
	return &Teacher[K, V]{
		source:          source,
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
	}, nil
}

// Serve runs a single synchronization session. It answers the learner's
// handshake with the leaf path bounds and root hash of the served source and
// then serves hash and leaf requests until the learner sends done or abort.
// Cancellation of the context takes effect between messages; to release a
// teacher blocked on a read, close the connection.
func (t *Teacher[K, V]) Serve(ctx context.Context, conn Connection) error {
	kind, payload, err := readMessage(conn)
	if err != nil {
		return fmt.Errorf("failed to read handshake: %w", err)
	}
	if kind != msgStart {
		sendAbort(conn, "expected start message")
		return fmt.Errorf("%w: expected start message, got %v", ErrProtocol, kind)
	}
	start, err := decodeMessage[startMessage](kind, payload)
	if err != nil {
		return err
	}
	if start.Version != protocolVersion {
		sendAbort(conn, fmt.Sprintf("unsupported protocol version %d", start.Version))
		return fmt.Errorf("%w: unsupported protocol version %d", ErrProtocol, start.Version)
	}

	firstLeafPath, lastLeafPath, err := t.source.Bounds()
	if err != nil {
		sendAbort(conn, "teacher failed to resolve its tree bounds")
		return fmt.Errorf("failed to resolve tree bounds: %w", err)
	}
	rootHash, err := virtual.RootHashOf(t.source)
	if err != nil {
		sendAbort(conn, "teacher failed to resolve its root hash")
		return fmt.Errorf("failed to resolve root hash: %w", err)
	}
	err = writeMessage(conn, msgBounds, boundsMessage{
		FirstLeafPath: encodePath(firstLeafPath),
		LastLeafPath:  encodePath(lastLeafPath),
		RootHash:      rootHash,
	})
	if err != nil {
		return err
	}

	for {
		if interrupt.IsCancelled(ctx) {
			sendAbort(conn, "teacher shutting down")
			return interrupt.ErrCanceled
		}
		kind, payload, err := readMessage(conn)
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}
		switch kind {
		case msgGetHash:
			request, err := decodeMessage[getHashMessage](kind, payload)
			if err != nil {
				sendAbort(conn, "malformed request")
				return err
			}
			path := decodePath(request.Path)
			if !path.Exists(firstLeafPath, lastLeafPath) {
				sendAbort(conn, "requested node does not exist")
				return fmt.Errorf("%w: requested hash of non-existing path %v", ErrProtocol, path)
			}
			hash, exists, err := t.source.LoadHash(path)
			if err != nil {
				sendAbort(conn, "teacher failed to load a hash")
				return fmt.Errorf("failed to load hash of path %v: %w", path, err)
			}
			if !exists {
				sendAbort(conn, "teacher misses a hash")
				return fmt.Errorf("%w: no hash stored for path %v", virtual.ErrMissingHash, path)
			}
			if err := writeMessage(conn, msgHash, hashMessage{Path: request.Path, Hash: hash}); err != nil {
				return err
			}
		case msgGetLeaf:
			request, err := decodeMessage[getLeafMessage](kind, payload)
			if err != nil {
				sendAbort(conn, "malformed request")
				return err
			}
			path := decodePath(request.Path)
			if !path.IsLeaf(firstLeafPath, lastLeafPath) {
				sendAbort(conn, "requested path is not a leaf")
				return fmt.Errorf("%w: requested leaf at non-leaf path %v", ErrProtocol, path)
			}
			leaf, exists, err := t.source.LoadLeafRecord(path)
			if err != nil {
				sendAbort(conn, "teacher failed to load a leaf")
				return fmt.Errorf("failed to load leaf at path %v: %w", path, err)
			}
			if !exists {
				sendAbort(conn, "teacher misses a leaf")
				return fmt.Errorf("no leaf record stored at path %v", path)
			}
			err = writeMessage(conn, msgLeaf, leafMessage{
				Path:  request.Path,
				Key:   t.keySerializer.ToBytes(leaf.Key),
				Value: t.valueSerializer.ToBytes(leaf.Value),
			})
			if err != nil {
				return err
			}
		case msgDone:
			return nil
		case msgAbort:
			message, err := decodeMessage[abortMessage](kind, payload)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w by learner: %s", ErrAborted, message.Reason)
		default:
			sendAbort(conn, "unexpected message")
			return fmt.Errorf("%w: unexpected %v message", ErrProtocol, kind)
		}
	}
}
