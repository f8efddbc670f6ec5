// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package link implements the raw, length-prefixed framed transport that
// carries Messages and Buffers between two Roots. It is deliberately not a
// general RPC framework: outbound frames are written directly by the
// sending goroutine, one frame at a time under a write mutex, and a single
// goroutine reads inbound frames and dispatches them to caller-supplied
// handlers.
package link

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splash-engine/splash/util/semaphore"
	"github.com/splash-engine/splash/value"
	"github.com/splash-engine/splash/wire"
)

// frameKind tags what follows a frame's length prefix on the wire.
type frameKind byte

const (
	frameMessage frameKind = 0
	frameBuffer  frameKind = 1
	frameAnswer  frameKind = 2
)

// Message is a (target, attribute, args) triple, the control-plane unit
// carried by a Link. Token is set to a non-nil UUID when the sender is
// blocked in SendMessageAndWaitForAnswer; a handler that wants to reply
// calls Link.Answer(msg.Token, args).
type Message struct {
	Target    string
	Attribute string
	Args      []value.Value
	Token     uuid.UUID
}

// Buffer is an opaque byte payload addressed to a named target Object.
type Buffer struct {
	Target string
	Bytes  []byte
}

// DefaultHighWaterMark bounds the outbound buffer queue: SendBuffer blocks
// once HighWaterMark buffers are in flight, and a blocked caller resumes as
// soon as any one of them has been sent. DefaultLowWaterMark is stored on
// the Link but does not affect when a blocked SendBuffer resumes.
const (
	DefaultHighWaterMark = 8
	DefaultLowWaterMark  = 2
)

// MessageHandler is invoked, on the Link's single inbound read goroutine,
// for every Message frame other than a reply to a pending
// send_message_and_wait_for_answer. A nil handler silently drops inbound
// messages. Messages and buffers share that goroutine, so a handler that
// blocks delays every later inbound frame of either kind.
type MessageHandler func(msg Message)

// BufferHandler is invoked, on the same inbound read goroutine as
// MessageHandler, for every Buffer frame received.
type BufferHandler func(buf Buffer)

// Link is one framed connection to a peer Root.
type Link struct {
	conn net.Conn

	writeMu sync.Mutex // serializes frame writes: one writer at a time on conn

	outHigh int
	outLow  int
	outSem  *semaphore.Semaphore // counts buffers in flight, for backpressure

	coalesceMu sync.Mutex
	coalesced  map[string][]byte // target -> latest not-yet-sent buffer

	pendingMu sync.Mutex
	pending   map[uuid.UUID]chan []value.Value // answer correlation slots

	wg       sync.WaitGroup
	closeErr error
	closed   chan struct{}
	closeOne sync.Once

	OnMessage MessageHandler
	OnBuffer  BufferHandler

	// Logf, if set, receives a line for transport-level errors that have
	// no caller to report them to (e.g. a read failing on the inbound
	// loop after the writer has already returned).
	Logf func(format string, v ...interface{})
}

// connectionOptions configures a Link's backpressure behavior.
type connectionOptions struct {
	highWaterMark int
	lowWaterMark  int
}

// Option configures optional Link behavior at construction time.
type Option func(*connectionOptions)

// WithWaterMarks overrides the default outbound buffer high/low water
// marks.
func WithWaterMarks(high, low int) Option {
	return func(o *connectionOptions) {
		o.highWaterMark = high
		o.lowWaterMark = low
	}
}

// ConnectTo dials addr over TCP and returns a running Link. Safe to retry:
// the caller may call ConnectTo again if the peer is not yet listening.
func ConnectTo(addr string, opts ...Option) (*Link, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("link: connect to %s: %w", addr, err)
	}
	return New(conn, opts...), nil
}

// New wraps an already-established net.Conn (a net.Pipe() end, a unix
// socket, an accepted TCP connection) as a running Link.
func New(conn net.Conn, opts ...Option) *Link {
	o := connectionOptions{highWaterMark: DefaultHighWaterMark, lowWaterMark: DefaultLowWaterMark}
	for _, apply := range opts {
		apply(&o)
	}
	l := &Link{
		conn:      conn,
		outHigh:   o.highWaterMark,
		outLow:    o.lowWaterMark,
		outSem:    semaphore.NewSemaphore(o.highWaterMark),
		coalesced: make(map[string][]byte),
		pending:   make(map[uuid.UUID]chan []value.Value),
		closed:    make(chan struct{}),
	}
	l.wg.Add(1)
	go l.readLoop()
	return l
}

func (l *Link) logf(format string, v ...interface{}) {
	if l.Logf != nil {
		l.Logf(format, v...)
	}
}

// writeFrame serializes one frame under writeMu: a one-byte kind, a
// uint32 length prefix, then the payload. Only one goroutine ever writes
// to conn at a time, so message frames, buffer frames, and answer frames
// never interleave mid-write.
func (l *Link) writeFrame(kind frameKind, payload []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := l.conn.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := l.conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := l.conn.Write(payload)
	return err
}

func encodeMessage(msg Message, correlation uuid.UUID) ([]byte, error) {
	var buf []byte
	w := &byteSliceWriter{buf: &buf}
	if err := wire.WriteBytes(w, []byte(msg.Target)); err != nil {
		return nil, err
	}
	if err := wire.WriteBytes(w, []byte(msg.Attribute)); err != nil {
		return nil, err
	}
	if err := wire.WriteValue(w, value.List(msg.Args)); err != nil {
		return nil, err
	}
	corrBytes, _ := correlation.MarshalBinary()
	buf = append(buf, corrBytes...)
	return buf, nil
}

// SendMessage writes a fire-and-forget Message frame.
func (l *Link) SendMessage(msg Message) error {
	payload, err := encodeMessage(msg, uuid.Nil)
	if err != nil {
		return err
	}
	return l.writeFrame(frameMessage, payload)
}

// SendMessageAndWaitForAnswer writes msg, then parks the caller on a
// one-shot channel keyed by a fresh correlation token until a matching
// answerMessage reply arrives or timeout elapses. It returns a nil slice
// on timeout, matching send_message_and_wait_for_answer's "returns empty
// on timeout" contract.
func (l *Link) SendMessageAndWaitForAnswer(msg Message, timeout time.Duration) []value.Value {
	token := uuid.New()
	ch := make(chan []value.Value, 1)
	l.pendingMu.Lock()
	l.pending[token] = ch
	l.pendingMu.Unlock()
	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, token)
		l.pendingMu.Unlock()
	}()

	payload, err := encodeMessage(msg, token)
	if err != nil {
		l.logf("link: encode message: %v", err)
		return nil
	}
	if err := l.writeFrame(frameMessage, payload); err != nil {
		l.logf("link: send message: %v", err)
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case args := <-ch:
		return args
	case <-timer.C:
		return nil
	case <-l.closed:
		return nil
	}
}

// Answer replies to a message previously received with a non-nil
// correlation token, delivering args back to the sender's blocked
// SendMessageAndWaitForAnswer call.
func (l *Link) Answer(token uuid.UUID, args []value.Value) error {
	var buf []byte
	w := &byteSliceWriter{buf: &buf}
	corrBytes, _ := token.MarshalBinary()
	buf = append(buf, corrBytes...)
	if err := wire.WriteValue(w, value.List(args)); err != nil {
		return err
	}
	return l.writeFrame(frameAnswer, buf)
}

// SendBuffer sends buf to target. If the outbound queue for this Link
// already holds HighWaterMark in-flight buffers, SendBuffer blocks until
// one of them has been sent; there is no separate low-water threshold. If
// a buffer for the same target is still
// queued (not yet acquired the semaphore slot that puts it on the wire),
// the newer one coalesces with it: the stale frame is simply never sent.
func (l *Link) SendBuffer(buf Buffer) error {
	l.coalesceMu.Lock()
	_, alreadyQueued := l.coalesced[buf.Target]
	l.coalesced[buf.Target] = buf.Bytes
	l.coalesceMu.Unlock()
	if alreadyQueued {
		return nil // a send for this target is already in flight; it will pick up the newest bytes
	}

	if err := l.outSem.P(1); err != nil {
		return fmt.Errorf("link: closed")
	}
	defer l.drainToLowWaterMark()

	l.coalesceMu.Lock()
	latest := l.coalesced[buf.Target]
	delete(l.coalesced, buf.Target)
	l.coalesceMu.Unlock()

	var payload []byte
	w := &byteSliceWriter{buf: &payload}
	if err := wire.WriteBytes(w, []byte(buf.Target)); err != nil {
		return err // defer still releases the semaphore slot
	}
	if err := wire.WriteBytes(w, latest); err != nil {
		return err
	}
	return l.writeFrame(frameBuffer, payload)
}

// drainToLowWaterMark releases the just-sent buffer's semaphore slot. The
// semaphore's capacity is the high-water mark; releasing one slot lets one
// SendBuffer caller parked in P(1) resume as soon as the queue is back
// under the high-water mark. The Link's low-water mark is not consulted.
func (l *Link) drainToLowWaterMark() {
	l.outSem.V(1)
}

// WaitForBuffersSent blocks until every queued buffer has been written to
// the wire, or timeout elapses.
func (l *Link) WaitForBuffersSent(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		l.outSem.P(l.outHigh) //nolint:errcheck // best-effort drain probe
		l.outSem.V(l.outHigh)
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close tears down the Link's connection and inbound worker goroutine,
// waking anyone blocked in SendMessageAndWaitForAnswer with a nil answer.
func (l *Link) Close() error {
	var err error
	l.closeOne.Do(func() {
		close(l.closed)
		err = l.conn.Close()
		l.outSem.Close()
	})
	l.wg.Wait()
	return err
}

func (l *Link) readLoop() {
	defer l.wg.Done()
	for {
		kind, payload, err := readFrame(l.conn)
		if err != nil {
			if err != io.EOF {
				l.logf("link: read: %v", err)
			}
			return
		}
		switch frameKind(kind) {
		case frameMessage:
			l.dispatchMessage(payload)
		case frameBuffer:
			l.dispatchBuffer(payload)
		case frameAnswer:
			l.dispatchAnswer(payload)
		default:
			l.logf("link: unknown frame kind %d", kind)
		}
	}
}

func readFrame(conn net.Conn) (byte, []byte, error) {
	var kindBuf [1]byte
	if _, err := io.ReadFull(conn, kindBuf[:]); err != nil {
		return 0, nil, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return 0, nil, err
	}
	return kindBuf[0], payload, nil
}

func (l *Link) dispatchMessage(payload []byte) {
	r := &byteSliceReader{buf: payload}
	target, err := wire.ReadBytes(r)
	if err != nil {
		l.logf("link: decode message target: %v", err)
		return
	}
	attr, err := wire.ReadBytes(r)
	if err != nil {
		l.logf("link: decode message attribute: %v", err)
		return
	}
	argsVal, err := wire.ReadValue(r)
	if err != nil {
		l.logf("link: decode message args: %v", err)
		return
	}
	args, _ := argsVal.List()
	var token uuid.UUID
	if len(r.buf)-r.pos >= 16 {
		token, _ = uuid.FromBytes(r.buf[r.pos : r.pos+16])
	}

	msg := Message{Target: string(target), Attribute: string(attr), Args: args, Token: token}
	if l.OnMessage != nil {
		l.OnMessage(msg)
	}
}

func (l *Link) dispatchBuffer(payload []byte) {
	r := &byteSliceReader{buf: payload}
	target, err := wire.ReadBytes(r)
	if err != nil {
		l.logf("link: decode buffer target: %v", err)
		return
	}
	data, err := wire.ReadBytes(r)
	if err != nil {
		l.logf("link: decode buffer payload: %v", err)
		return
	}
	if l.OnBuffer != nil {
		l.OnBuffer(Buffer{Target: string(target), Bytes: data})
	}
}

func (l *Link) dispatchAnswer(payload []byte) {
	if len(payload) < 16 {
		l.logf("link: answer frame too short")
		return
	}
	token, err := uuid.FromBytes(payload[:16])
	if err != nil {
		l.logf("link: decode answer token: %v", err)
		return
	}
	r := &byteSliceReader{buf: payload[16:]}
	argsVal, err := wire.ReadValue(r)
	if err != nil {
		l.logf("link: decode answer args: %v", err)
		return
	}
	args, _ := argsVal.List()

	l.pendingMu.Lock()
	ch, ok := l.pending[token]
	l.pendingMu.Unlock()
	if !ok {
		return // no one is waiting any more (already timed out)
	}
	select {
	case ch <- args:
	default:
	}
}

// byteSliceWriter is a minimal io.Writer over a growable byte slice, used
// instead of bytes.Buffer so wire.Write* calls can append directly into a
// frame payload that is later handed whole to writeFrame.
type byteSliceWriter struct{ buf *[]byte }

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// byteSliceReader is a minimal io.Reader over an in-memory frame payload.
type byteSliceReader struct {
	buf []byte
	pos int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	return n, nil
}
