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

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// Session is a learner synchronization running on its own goroutine. It
// owns the connection it was started with and closes it on completion.
type Session struct {
	conn   Connection
	cancel context.CancelFunc
	done   chan struct{}

	rootHash common.Hash
	stats    Stats
	err      error
}

// BeginLearnerSession starts a synchronization of the given learner in the
// background. The returned session takes ownership of the connection.
func BeginLearnerSession[K comparable, V any](ctx context.Context, learner *Learner[K, V], conn Connection) *Session {
	ctx, cancel := context.WithCancel(ctx)
	session := &Session{conn: conn, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(session.done)
		defer conn.Close()
		session.rootHash, session.stats, session.err = learner.Reconnect(ctx, conn)
	}()
	return session
}

// Await blocks until the session completed and returns its outcome. It may
// be called any number of times, from any goroutine.
func (s *Session) Await() (common.Hash, Stats, error) {
	<-s.done
	return s.rootHash, s.stats, s.err
}

// Done returns a channel that is closed once the session completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Abort cancels the session. The connection is closed to release a learner
// blocked on a read; it cannot be reused. Await keeps reporting the
// session's outcome, typically a cancellation error.
func (s *Session) Abort() {
	s.cancel()
	_ = s.conn.Close()
}
