package control

import (
	"log"

	"github.com/ubports/upstart/internal/wire"
	"golang.org/x/sys/unix"
)

// Request is one authorized, decoded inbound message, handed to the
// engine's single main-loop goroutine for synchronous processing. Reply
// may be called any number of times (JobList-style replies stream several
// messages before a terminator) from that same goroutine; it only
// performs a sendto, never touches engine state, so it is safe to call
// outside of Server's own reader goroutine.
type Request struct {
	Msg  wire.Message
	Cred unix.Ucred

	sock *Socket
	from string
}

// From returns the bound address the request's sender used, the same
// address Reply sends to. Subscription handling (SubscribeJobs et al.)
// needs this to remember where unsolicited notifications should go.
func (r *Request) From() string { return r.from }

// Reply addresses one or more messages back to the request's sender. If
// the sender bound no return address (malformed client), the reply is
// dropped and logged rather than erroring the caller.
func (r *Request) Reply(msgs ...wire.Message) {
	if r.from == "" {
		log.Printf("control: dropping reply to pid=%d: sender bound no return address", r.Cred.Pid)
		return
	}
	for _, m := range msgs {
		if err := r.sock.SendTo(r.from, wire.Encode(m)); err != nil {
			log.Printf("control: send to pid=%d failed: %v", r.Cred.Pid, err)
		}
	}
}

// Server owns the bound control Socket and turns inbound datagrams into
// authorized, decoded Requests on a channel, matching the teacher's
// daemon.Start/setupSocket shape generalized from a streaming
// net.Listener to a connectionless SOCK_SEQPACKET socket (§5, §6). All
// I/O (recvmsg, decode, authorize) happens on Server's own goroutine;
// Requests are handed off for synchronous handling on the engine's single
// main-loop goroutine, preserving §5's no-locks/single-threaded-mutation
// invariant — this channel hand-off is the self-pipe-equivalent §5 calls
// for, translated into idiomatic Go.
type Server struct {
	sock *Socket
	auth *Authorizer
}

// NewServer wraps an already-bound Socket.
func NewServer(sock *Socket, auth *Authorizer) *Server {
	return &Server{sock: sock, auth: auth}
}

// Requests starts the reader goroutine and returns the channel of
// authorized, decoded requests. The channel is closed when the socket is
// closed or stop fires. Rejected or malformed frames are logged and
// never reach the channel.
func (s *Server) Requests(stop <-chan struct{}) <-chan *Request {
	out := make(chan *Request)
	go func() {
		defer close(out)
		for {
			rx, err := s.sock.Recv()
			if err != nil {
				return
			}

			select {
			case <-stop:
				return
			default:
			}

			if !s.auth.Allow(rx.Cred) {
				log.Printf("control: rejected message from uid=%d pid=%d: failed authorization",
					rx.Cred.Uid, rx.Cred.Pid)
				continue
			}

			msg, err := wire.Decode(rx.Frame)
			if err != nil {
				log.Printf("control: malformed frame from pid=%d: %v", rx.Cred.Pid, err)
				continue
			}

			req := &Request{Msg: msg, Cred: rx.Cred, sock: s.sock, from: rx.From}
			select {
			case out <- req:
			case <-stop:
				return
			}
		}
	}()
	return out
}

// Close releases the underlying socket, which also unblocks the reader
// goroutine's pending Recv with an error.
func (s *Server) Close() error { return s.sock.Close() }
