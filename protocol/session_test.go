package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
)

// chanWriter captures written frames for inspection
type chanWriter struct {
	ch chan []byte
}

func (w *chanWriter) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)
	w.ch <- b
	return len(p), nil
}

// failWriter simulates a broken transport
type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func newTestSession() (*Session, *chanWriter) {
	w := &chanWriter{ch: make(chan []byte, 16)}
	return NewSession(w, codec.NewMsgpackCodec(), clockwork.NewRealClock()), w
}

// nextWrittenFrame returns the next frame the session wrote to its transport
func nextWrittenFrame(t *testing.T, w *chanWriter) *Frame {
	t.Helper()
	select {
	case b := <-w.ch:
		frame, n, err := Decode(b)
		if err != nil || frame == nil || n != len(b) {
			t.Fatalf("session wrote an invalid frame: %v (err %v)", b, err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("session wrote no frame")
		return nil
	}
}

// sendAsync runs Send in the background and returns a channel with its outcome
func sendAsync(s *Session, tipe TypeCode, data any, timeout time.Duration) chan Result {
	ch := make(chan Result, 1)
	go func() {
		res, err := s.Send(tipe, data, timeout)
		ch <- Result{Data: res, Err: err}
	}()
	return ch
}

func pack(t *testing.T, v any) []byte {
	t.Helper()
	b, err := codec.NewMsgpackCodec().Pack(v)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return b
}

// TestSessionRoundTrip sends a request and resolves it with a reply frame
func TestSessionRoundTrip(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqQuery, []any{"select * from series", nil}, time.Second)

	frame := nextWrittenFrame(t, w)
	if frame.Type != ReqQuery {
		t.Errorf("request type = %d, want %d", frame.Type, ReqQuery)
	}
	if frame.Pid != 1 {
		t.Errorf("first request id = %d, want 1", frame.Pid)
	}

	s.Feed(Encode(frame.Pid, ResQuery, pack(t, map[string]any{"calc": "42"})))

	res := <-resCh
	if res.Err != nil {
		t.Fatalf("Send() error: %v", res.Err)
	}
	m, ok := res.Data.(map[string]any)
	if !ok || m["calc"] != "42" {
		t.Errorf("result = %v, want map with calc=42", res.Data)
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending count = %d after resolution, want 0", s.PendingCount())
	}
}

// TestSessionRepliesOutOfOrder verifies correlation by id, not submission order
func TestSessionRepliesOutOfOrder(t *testing.T) {
	s, w := newTestSession()

	first := sendAsync(s, ReqQuery, []any{"first", nil}, time.Second)
	second := sendAsync(s, ReqQuery, []any{"second", nil}, time.Second)

	frames := map[string]*Frame{}
	for i := 0; i < 2; i++ {
		frame := nextWrittenFrame(t, w)
		data, err := codec.NewMsgpackCodec().Unpack(frame.Payload)
		if err != nil {
			t.Fatalf("unpack request: %v", err)
		}
		query := data.([]any)[0].(string)
		frames[query] = frame
	}

	// resolve in reverse submission order
	s.Feed(Encode(frames["second"].Pid, ResQuery, pack(t, map[string]any{"q": "second"})))
	s.Feed(Encode(frames["first"].Pid, ResQuery, pack(t, map[string]any{"q": "first"})))

	if res := <-first; res.Err != nil || res.Data.(map[string]any)["q"] != "first" {
		t.Errorf("first request resolved with %v, %v", res.Data, res.Err)
	}
	if res := <-second; res.Err != nil || res.Data.(map[string]any)["q"] != "second" {
		t.Errorf("second request resolved with %v, %v", res.Data, res.Err)
	}
}

// TestSessionTimeout verifies a request without a reply resolves with a
// timeout failure and that the late reply is dropped as an orphan
func TestSessionTimeout(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqQuery, []any{"slow", nil}, 30*time.Millisecond)
	frame := nextWrittenFrame(t, w)

	res := <-resCh
	if !errors.Is(res.Err, common.ErrTimedOut) {
		t.Fatalf("Send() error = %v, want ErrTimedOut", res.Err)
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending count = %d after timeout, want 0", s.PendingCount())
	}

	// the late reply must be discarded without side effects
	s.Feed(Encode(frame.Pid, ResQuery, pack(t, map[string]any{"calc": "late"})))
	if s.PendingCount() != 0 {
		t.Errorf("orphan reply changed pending count to %d", s.PendingCount())
	}
}

// TestSessionWriteFailure verifies a broken transport surfaces as a closed
// connection and leaves no pending record behind
func TestSessionWriteFailure(t *testing.T) {
	s := NewSession(failWriter{}, codec.NewMsgpackCodec(), clockwork.NewRealClock())

	_, err := s.Send(ReqPing, nil, time.Second)
	if !errors.Is(err, common.ErrConnClosed) {
		t.Fatalf("Send() error = %v, want ErrConnClosed", err)
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending count = %d after write failure, want 0", s.PendingCount())
	}
}

// TestSessionErrorMapping verifies the closed response-type table
func TestSessionErrorMapping(t *testing.T) {
	tests := []struct {
		name  string
		tipe  TypeCode
		check func(error) bool
	}{
		{"QueryError", ErrQuery, func(err error) bool {
			var e *common.QueryError
			return errors.As(err, &e)
		}},
		{"InsertError", ErrInsert, func(err error) bool {
			var e *common.InsertError
			return errors.As(err, &e)
		}},
		{"ServerError", ErrServer, func(err error) bool {
			var e *common.ServerError
			return errors.As(err, &e)
		}},
		{"PoolError", ErrPool, func(err error) bool {
			var e *common.PoolError
			return errors.As(err, &e)
		}},
		{"UserAccess", ErrUserAccess, func(err error) bool {
			var e *common.AuthenticationError
			return errors.As(err, &e)
		}},
		{"NotAuthenticated", ErrNotAuthenticated, func(err error) bool {
			var e *common.AuthenticationError
			return errors.As(err, &e)
		}},
		{"BadCredentials", ErrAuthCredentials, func(err error) bool {
			var e *common.AuthenticationError
			return errors.As(err, &e)
		}},
		{"UnknownDatabase", ErrAuthUnknownDB, func(err error) bool {
			var e *common.AuthenticationError
			return errors.As(err, &e)
		}},
		{"GenericMessage", ErrMsg, func(err error) bool {
			return err != nil && err.Error() == "boom"
		}},
		{"UnknownType", TypeCode(200), func(err error) bool {
			var e *common.ProtocolError
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, w := newTestSession()
			resCh := sendAsync(s, ReqQuery, []any{"q", nil}, time.Second)
			frame := nextWrittenFrame(t, w)

			s.Feed(Encode(frame.Pid, tt.tipe, pack(t, map[string]any{"error_msg": "boom"})))

			res := <-resCh
			if !tt.check(res.Err) {
				t.Errorf("type %d resolved with %v", tt.tipe, res.Err)
			}
		})
	}
}

// TestSessionSuccessMapping verifies ack and auth-success outcomes
func TestSessionSuccessMapping(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqPing, nil, time.Second)
	frame := nextWrittenFrame(t, w)
	s.Feed(Encode(frame.Pid, ResAck, nil))
	if res := <-resCh; res.Err != nil || res.Data != nil {
		t.Errorf("ack resolved with %v, %v", res.Data, res.Err)
	}

	resCh = sendAsync(s, ReqAuth, []any{"u", "p", "db"}, time.Second)
	frame = nextWrittenFrame(t, w)
	s.Feed(Encode(frame.Pid, ResAuthSuccess, nil))
	if res := <-resCh; res.Err != nil || res.Data != true {
		t.Errorf("auth success resolved with %v, %v", res.Data, res.Err)
	}
}

// TestSessionCorruptBufferFlush verifies a corrupt header flushes the buffer
// and the connection keeps working for frames received afterwards
func TestSessionCorruptBufferFlush(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqQuery, []any{"q", nil}, time.Second)
	frame := nextWrittenFrame(t, w)

	// header with a broken check byte, followed by trailing garbage
	corrupt := Encode(9, ResQuery, []byte("junk"))
	corrupt[7] ^= 0xFF
	s.Feed(corrupt)

	// the request is still pending, a fresh reply resolves it
	if s.PendingCount() != 1 {
		t.Fatalf("pending count = %d after flush, want 1", s.PendingCount())
	}
	s.Feed(Encode(frame.Pid, ResQuery, pack(t, map[string]any{"calc": "ok"})))

	res := <-resCh
	if res.Err != nil {
		t.Fatalf("Send() after corrupt flush: %v", res.Err)
	}
}

// TestSessionSplitDelivery feeds a reply frame byte by byte
func TestSessionSplitDelivery(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqQuery, []any{"q", nil}, time.Second)
	frame := nextWrittenFrame(t, w)

	reply := Encode(frame.Pid, ResQuery, pack(t, map[string]any{"calc": "ok"}))
	for i := range reply {
		s.Feed(reply[i : i+1])
	}

	res := <-resCh
	if res.Err != nil {
		t.Fatalf("Send() with split delivery: %v", res.Err)
	}
}

// TestSessionRecordCompleteWhenVisible verifies the pending record already
// carries its armed timer by the time the request frame reaches the wire, a
// reply may arrive and stop the timer that early
func TestSessionRecordCompleteWhenVisible(t *testing.T) {
	s, w := newTestSession()

	resCh := sendAsync(s, ReqQuery, []any{"q", nil}, time.Second)
	frame := nextWrittenFrame(t, w)

	rec, ok := s.requests.Load(frame.Pid)
	if !ok {
		t.Fatal("no pending record for the written frame")
	}
	if rec.timer == nil {
		t.Fatal("pending record published without an armed timer")
	}

	s.Feed(Encode(frame.Pid, ResQuery, pack(t, map[string]any{"calc": "ok"})))
	if res := <-resCh; res.Err != nil {
		t.Fatalf("Send() error: %v", res.Err)
	}
}

// TestRequestIdWrap verifies ids are issued 1..65535 and wrap to 0
func TestRequestIdWrap(t *testing.T) {
	s, _ := newTestSession()

	for i := 1; i <= 65536; i++ {
		want := uint16(i) // uint16(65536) == 0
		if got := s.nextPid(); got != want {
			t.Fatalf("request id %d = %d, want %d", i, got, want)
		}
	}
	if got := s.nextPid(); got != 1 {
		t.Fatalf("request id after wrap = %d, want 1", got)
	}
}
