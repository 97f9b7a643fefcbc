// Copyright 2025 The Candid LS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
)

// A Msg carries one unit of work to a mailbox reader.
type Msg[T any] struct {
	Content        T
	resultReady    chan struct{}
	terminatedChan <-chan struct{}
}

// WaitForReply blocks until the reader has processed msg. It returns false
// if the reader terminated first.
func (msg *Msg[T]) WaitForReply() bool {
	select {
	case <-msg.resultReady:
		return true
	case <-msg.terminatedChan:
		// Both channels may have been ready; check the result again.
		select {
		case <-msg.resultReady:
			return true
		default:
			return false
		}
	}
}

// MarkProcessed is called by the reader once msg has been handled.
func (msg *Msg[T]) MarkProcessed() {
	close(msg.resultReady)
}

// A MailboxWriter sends messages to a single reader.
type MailboxWriter[T any] struct {
	ch             chan<- *Msg[T]
	TerminatedChan <-chan struct{}
}

// Send delivers msg to the reader, optionally waiting for it to be
// processed. It reports false if the reader has terminated.
func (w *MailboxWriter[T]) Send(msg *Msg[T], waitForReply bool) (success bool) {
	msg.terminatedChan = w.TerminatedChan
	msg.resultReady = make(chan struct{})
	select {
	case <-w.TerminatedChan:
		return false
	case w.ch <- msg:
	}
	if waitForReply {
		return msg.WaitForReply()
	}
	return true
}

// A MailboxReader receives the messages of a mailbox in the order they
// were sent.
type MailboxReader[T any] struct {
	ch             <-chan *Msg[T]
	terminatedChan chan struct{}
}

// Terminate marks the reader as exited. It is idempotent, but not
// concurrent-safe.
func (r *MailboxReader[T]) Terminate() {
	select {
	case <-r.terminatedChan:
	default:
		close(r.terminatedChan)
	}
}

// Receive returns the next message, or false once stop is closed.
func (r *MailboxReader[T]) Receive(stop <-chan struct{}) (*Msg[T], bool) {
	select {
	case msg := <-r.ch:
		return msg, true
	case <-stop:
		return nil, false
	}
}

// NewMailbox returns the two ends of an unbuffered mailbox.
func NewMailbox[T any]() (writer *MailboxWriter[T], reader *MailboxReader[T]) {
	ch := make(chan *Msg[T])
	terminatedChan := make(chan struct{})

	writer = &MailboxWriter[T]{
		ch:             ch,
		TerminatedChan: terminatedChan,
	}
	reader = &MailboxReader[T]{
		ch:             ch,
		terminatedChan: terminatedChan,
	}
	return writer, reader
}

// ErrServerTerminated is returned for requests that arrive after the
// server's actor has stopped.
var ErrServerTerminated = errors.New("server has terminated")

type serverFunc = func(*server)

// startActor runs the loop that owns st. Every state change of the
// server, including each document edit, is a message to this loop, so
// edits apply strictly in the order they were received.
func startActor(st *server, stop <-chan struct{}) *MailboxWriter[serverFunc] {
	w, r := NewMailbox[serverFunc]()
	go func() {
		defer r.Terminate()
		for {
			msg, ok := r.Receive(stop)
			if !ok {
				return
			}
			msg.Content(st)
			msg.MarkProcessed()
		}
	}()
	return w
}

// sendAndWait runs fun on the actor and waits for it to finish.
func (s *Server) sendAndWait(fun serverFunc) error {
	msg := &Msg[serverFunc]{
		Content: fun,
	}
	if s.actor.Send(msg, true) {
		return nil
	}
	return ErrServerTerminated
}
