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

//go:generate mockgen -source transport.go -destination transport_mocks.go -package reconnect

import (
	"io"
	"sync"
)

// Connection is a reliable, ordered byte stream connecting the two sides of
// a tree synchronization. Any net.Conn satisfies it. Closing a connection
// unblocks pending reads on both ends; data written before the close can
// still be read.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// NewPipe creates a pair of connected in-memory connections, one for each
// side of a synchronization running within the same process. Unlike net.Pipe
// the returned connections buffer written data without bound, so writers
// never block on the remote reader. Learners keep a window of requests in
// flight, which deadlocks over an unbuffered, synchronous pipe.
func NewPipe() (Connection, Connection) {
	a := newPipeBuffer()
	b := newPipeBuffer()
	return &pipeConn{read: a, write: b}, &pipeConn{read: b, write: a}
}

type pipeConn struct {
	read  *pipeBuffer
	write *pipeBuffer
}

func (c *pipeConn) Read(dst []byte) (int, error) {
	return c.read.read(dst)
}

func (c *pipeConn) Write(src []byte) (int, error) {
	return c.write.write(src)
}

func (c *pipeConn) Close() error {
	c.read.close()
	c.write.close()
	return nil
}

// pipeBuffer is one direction of a pipe, an unbounded byte queue handing
// data from one writer side to one reader side.
type pipeBuffer struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	data   []byte
	closed bool
}

func newPipeBuffer() *pipeBuffer {
	buffer := &pipeBuffer{}
	buffer.cond = sync.NewCond(&buffer.mutex)
	return buffer
}

func (b *pipeBuffer) write(src []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	b.data = append(b.data, src...)
	b.cond.Broadcast()
	return len(src), nil
}

func (b *pipeBuffer) read(dst []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for len(b.data) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	n := copy(dst, b.data)
	b.data = b.data[n:]
	if len(b.data) == 0 {
		b.data = nil
	}
	return n, nil
}

func (b *pipeBuffer) close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.closed = true
	b.cond.Broadcast()
}
