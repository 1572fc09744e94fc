package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
)

var Logger = logger.GetLogger("protocol")

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// Result carries the outcome of one request.
type Result struct {
	Data any
	Err  error
}

// pending tracks one in-flight request until its reply arrives or its
// timeout fires.
type pending struct {
	ch    chan Result
	timer clockwork.Timer
}

// Session owns the multiplexing state of one live connection: it frames
// outgoing requests, correlates replies by request id and enforces
// per-request timeouts. The transport writer is owned exclusively by the
// session.
//
// Request ids are issued from a counter that wraps at 65536, the first
// issued id is 1 and id 0 is only reissued after a full wraparound. Ids must
// not collide among in-flight requests, callers are expected to bound
// concurrency per connection well below 65536.
type Session struct {
	w     io.Writer
	clock clockwork.Clock
	codec codec.Codec

	pid      atomic.Uint32
	requests *xsync.MapOf[uint16, *pending]

	// writeMu serializes frame writes, replies are matched by id and may
	// complete out of order
	writeMu sync.Mutex

	// buf accumulates received bytes, only touched by the read loop
	buf []byte
}

// NewSession creates a session over the given transport writer.
func NewSession(w io.Writer, c codec.Codec, clock clockwork.Clock) *Session {
	return &Session{
		w:        w,
		clock:    clock,
		codec:    c,
		requests: xsync.NewMapOf[uint16, *pending](),
	}
}

// --------------------------------------------------------------------------
// Sending
// --------------------------------------------------------------------------

// Send packs data (nil sends an empty payload), frames it with a fresh
// request id, writes it to the transport and suspends the caller until the
// reply with that id arrives or the timeout fires. A timed out request
// cannot be retracted from the wire, its late reply is dropped as an orphan.
func (s *Session) Send(tipe TypeCode, data any, timeout time.Duration) (any, error) {
	var payload []byte
	if data != nil {
		var err error
		if payload, err = s.codec.Pack(data); err != nil {
			return nil, fmt.Errorf("failed to pack request: %v", err)
		}
	}

	pid := s.nextPid()
	rec := &pending{ch: make(chan Result, 1)}

	// Arm the timer first, then register before writing: a fast reply must
	// always find a complete record
	rec.timer = s.clock.AfterFunc(timeout, func() { s.timeoutRequest(pid) })
	s.requests.Store(pid, rec)

	s.writeMu.Lock()
	_, err := s.w.Write(Encode(pid, tipe, payload))
	s.writeMu.Unlock()

	if err != nil {
		if rec, ok := s.requests.LoadAndDelete(pid); ok {
			rec.timer.Stop()
		}
		return nil, fmt.Errorf("%w: %v", common.ErrConnClosed, err)
	}

	res := <-rec.ch
	return res.Data, res.Err
}

// nextPid allocates the next request id. The uint16 conversion handles the
// wrap at 65536.
func (s *Session) nextPid() uint16 {
	return uint16(s.pid.Add(1))
}

// PendingCount returns the number of in-flight requests on this session.
func (s *Session) PendingCount() int {
	return s.requests.Size()
}

// timeoutRequest resolves a pending record with a timeout failure and
// removes it. This is the only form of cancellation.
func (s *Session) timeoutRequest(pid uint16) {
	rec, ok := s.requests.LoadAndDelete(pid)
	if !ok {
		return
	}
	rec.ch <- Result{Err: common.ErrTimedOut}
}

// --------------------------------------------------------------------------
// Receiving
// --------------------------------------------------------------------------

// Feed appends newly received bytes to the session buffer and dispatches
// every complete frame found in it. On a corrupt header the whole buffer is
// flushed, in-flight requests on this connection then fail via their own
// timeouts.
func (s *Session) Feed(data []byte) {
	s.buf = append(s.buf, data...)
	for len(s.buf) > 0 {
		frame, n, err := Decode(s.buf)
		if err != nil {
			Logger.Errorf("flushing %d buffered bytes: %v", len(s.buf), err)
			s.buf = s.buf[:0]
			return
		}
		if frame == nil {
			return
		}
		s.buf = s.buf[n:]
		s.dispatch(frame)
	}
}

// dispatch resolves the pending request the frame belongs to. A reply whose
// id is no longer pending has already timed out and is dropped.
func (s *Session) dispatch(f *Frame) {
	rec, ok := s.requests.LoadAndDelete(f.Pid)
	if !ok {
		Logger.Errorf("request id not found: %d (type %d), dropping reply", f.Pid, f.Type)
		return
	}
	rec.timer.Stop()
	rec.ch <- s.resolve(f)
}

// resolve maps a response frame to a typed outcome. The mapping is a closed
// table, unrecognized type codes indicate a client/server version mismatch.
func (s *Session) resolve(f *Frame) Result {
	switch f.Type {
	case ResQuery, ResInsert, ResInfo, ResFile:
		data, err := s.unpack(f.Payload)
		if err != nil {
			return Result{Err: err}
		}
		return Result{Data: data}
	case ResAck:
		return Result{}
	case ResAuthSuccess:
		return Result{Data: true}
	case ErrMsg:
		return Result{Err: errors.New(s.errorMsg(f.Payload))}
	case ErrQuery:
		return Result{Err: &common.QueryError{Msg: s.errorMsg(f.Payload)}}
	case ErrInsert:
		return Result{Err: &common.InsertError{Msg: s.errorMsg(f.Payload)}}
	case ErrServer:
		return Result{Err: &common.ServerError{Msg: s.errorMsg(f.Payload)}}
	case ErrPool:
		return Result{Err: &common.PoolError{Msg: s.errorMsg(f.Payload)}}
	case ErrUserAccess:
		return Result{Err: &common.AuthenticationError{Msg: s.errorMsg(f.Payload)}}
	case ErrNotAuthenticated:
		return Result{Err: &common.AuthenticationError{Msg: "this connection is not authenticated"}}
	case ErrAuthCredentials:
		return Result{Err: &common.AuthenticationError{Msg: "invalid credentials"}}
	case ErrAuthUnknownDB:
		return Result{Err: &common.AuthenticationError{Msg: "unknown database"}}
	case ErrGeneric:
		return Result{Err: errors.New("unexpected error occurred, check the database server log for more info")}
	case ErrLoadingDB:
		return Result{Err: errors.New("error loading database, check the database server log files")}
	case ErrFile:
		return Result{Err: errors.New("error retrieving file")}
	default:
		return Result{Err: &common.ProtocolError{
			Msg: fmt.Sprintf("received an unknown package type: %d", f.Type)}}
	}
}

// unpack decodes a response payload, an empty payload decodes to nil.
func (s *Session) unpack(payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	data, err := s.codec.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack response: %v", err)
	}
	return data, nil
}

// errorMsg extracts the error_msg field from an error response payload.
func (s *Session) errorMsg(payload []byte) string {
	data, err := s.unpack(payload)
	if err != nil {
		return fmt.Sprintf("(failed to unpack error message: %v)", err)
	}
	if m, ok := data.(map[string]any); ok {
		if msg, ok := m["error_msg"].(string); ok {
			return msg
		}
	}
	return fmt.Sprintf("%v", data)
}
