package client

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
	"github.com/chronostore/chrono-go/protocol"
)

// handlerFunc maps a received request to the response type and payload value
type handlerFunc func(tipe protocol.TypeCode, data any) (protocol.TypeCode, any)

// defaultHandler authenticates everyone and answers queries, inserts and pings
func defaultHandler(tipe protocol.TypeCode, data any) (protocol.TypeCode, any) {
	switch tipe {
	case protocol.ReqAuth:
		return protocol.ResAuthSuccess, nil
	case protocol.ReqPing:
		return protocol.ResAck, nil
	case protocol.ReqQuery:
		return protocol.ResQuery, map[string]any{"calc": "ok"}
	case protocol.ReqInsert:
		return protocol.ResInsert, map[string]any{"success_msg": "inserted"}
	}
	return protocol.ErrGeneric, nil
}

// fakeServer is a minimal in-process cluster server speaking the wire
// protocol, used to exercise the pool end to end over real TCP
type fakeServer struct {
	t  *testing.T
	ln net.Listener
	c  codec.Codec

	handle handlerFunc

	mu     sync.Mutex
	frames []protocol.Frame
}

func newFakeServer(t *testing.T, handle handlerFunc) *fakeServer {
	return newFakeServerOn(t, "127.0.0.1:0", handle)
}

func newFakeServerOn(t *testing.T, addr string, handle handlerFunc) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("fake server listen: %v", err)
	}
	s := &fakeServer{t: t, ln: ln, c: codec.NewMsgpackCodec(), handle: handle}
	go s.acceptLoop()
	return s
}

func (s *fakeServer) close() {
	s.ln.Close()
}

// serverConfig returns the endpoint config pointing at this server
func (s *fakeServer) serverConfig() common.ServerConfig {
	addr := s.ln.Addr().(*net.TCPAddr)
	return common.ServerConfig{Host: "127.0.0.1", Port: uint16(addr.Port)}
}

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()

	var buf []byte
	tmp := make([]byte, 4096)
	for {
		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			for {
				frame, consumed, derr := protocol.Decode(buf)
				if derr != nil {
					return
				}
				if frame == nil {
					break
				}
				buf = buf[consumed:]
				s.record(frame)

				var data any
				if len(frame.Payload) > 0 {
					if data, derr = s.c.Unpack(frame.Payload); derr != nil {
						return
					}
				}

				tipe, resp := s.handle(frame.Type, data)
				var payload []byte
				if resp != nil {
					if payload, derr = s.c.Pack(resp); derr != nil {
						return
					}
				}
				if _, werr := conn.Write(protocol.Encode(frame.Pid, tipe, payload)); werr != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *fakeServer) record(frame *protocol.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, *frame)
}

// sawType reports whether a request of the given type was received
func (s *fakeServer) sawType(tipe protocol.TypeCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, frame := range s.frames {
		if frame.Type == tipe {
			return true
		}
	}
	return false
}

// clientConf builds a client configuration pointing at the given servers
func clientConf(servers ...common.ServerConfig) common.ClientConfig {
	return common.ClientConfig{
		Username: "iris",
		Password: "siri",
		Database: "metrics",
		Servers:  servers,
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
