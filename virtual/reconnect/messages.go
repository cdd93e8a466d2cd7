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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// The synchronization protocol exchanges framed messages over a reliable,
// ordered byte stream. Each frame is a one-byte message kind, a four-byte
// big-endian payload length, and an RLP encoded payload. The learner drives
// the exchange: after the initial start/bounds handshake it sends getHash
// and getLeaf requests, which the teacher answers strictly in request order.
// Either side may send abort at any time and drop the connection.

const (
	// protocolVersion is announced in the start message; the teacher rejects
	// learners speaking a different version.
	protocolVersion = 1

	// maxPayloadSize caps the payload length accepted from the wire.
	maxPayloadSize = 1 << 24
)

const (
	// ErrProtocol indicates a violation of the synchronization protocol, for
	// instance an out-of-order response or a malformed message.
	ErrProtocol = common.ConstError("protocol violation")

	// ErrAborted indicates the remote side gave up on the synchronization.
	ErrAborted = common.ConstError("synchronization aborted")
)

type messageKind byte

const (
	msgStart messageKind = iota + 1
	msgBounds
	msgGetHash
	msgHash
	msgGetLeaf
	msgLeaf
	msgDone
	msgAbort
)

func (k messageKind) String() string {
	switch k {
	case msgStart:
		return "start"
	case msgBounds:
		return "bounds"
	case msgGetHash:
		return "getHash"
	case msgHash:
		return "hash"
	case msgGetLeaf:
		return "getLeaf"
	case msgLeaf:
		return "leaf"
	case msgDone:
		return "done"
	case msgAbort:
		return "abort"
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// Paths travel shifted by one since RLP has no notion of signed integers.
// The shift maps InvalidPath to zero, keeping empty bounds encodable.

func encodePath(path virtual.Path) uint64 {
	return uint64(path + 1)
}

func decodePath(encoded uint64) virtual.Path {
	return virtual.Path(encoded) - 1
}

type startMessage struct {
	Version uint64
}

type boundsMessage struct {
	FirstLeafPath uint64
	LastLeafPath  uint64
	RootHash      common.Hash
}

type getHashMessage struct {
	Path uint64
}

type hashMessage struct {
	Path uint64
	Hash common.Hash
}

type getLeafMessage struct {
	Path uint64
}

type leafMessage struct {
	Path  uint64
	Key   []byte
	Value []byte
}

type doneMessage struct{}

type abortMessage struct {
	Reason string
}

// writeMessage frames and sends a single message. The frame is issued as one
// Write call so writers never interleave partial frames.
func writeMessage(conn io.Writer, kind messageKind, message any) error {
	payload, err := rlp.EncodeToBytes(message)
	if err != nil {
		return fmt.Errorf("failed to encode %v message: %w", kind, err)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %v payload of %d bytes exceeds limit", ErrProtocol, kind, len(payload))
	}
	frame := make([]byte, 5+len(payload))
	frame[0] = byte(kind)
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))
	copy(frame[5:], payload)
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to send %v message: %w", kind, err)
	}
	return nil
}

// readMessage receives the next frame and returns its kind and raw payload.
func readMessage(conn io.Reader) (messageKind, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return 0, nil, err
	}
	kind := messageKind(header[0])
	if kind < msgStart || kind > msgAbort {
		return 0, nil, fmt.Errorf("%w: unknown message kind %d", ErrProtocol, header[0])
	}
	size := binary.BigEndian.Uint32(header[1:5])
	if size > maxPayloadSize {
		return 0, nil, fmt.Errorf("%w: %v payload of %d bytes exceeds limit", ErrProtocol, kind, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return 0, nil, fmt.Errorf("failed to receive %v payload: %w", kind, err)
	}
	return kind, payload, nil
}

// decodeMessage decodes an RLP payload into the given message type. Decoding
// issues are reported as protocol violations.
func decodeMessage[M any](kind messageKind, payload []byte) (M, error) {
	var message M
	if err := rlp.DecodeBytes(payload, &message); err != nil {
		return message, fmt.Errorf("%w: malformed %v message: %v", ErrProtocol, kind, err)
	}
	return message, nil
}

// sendAbort makes a best effort attempt to notify the remote side before the
// connection is dropped. The connection may already be gone.
func sendAbort(conn io.Writer, reason string) {
	_ = writeMessage(conn, msgAbort, abortMessage{Reason: reason})
}
