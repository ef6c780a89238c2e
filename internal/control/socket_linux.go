//go:build linux

// Package control implements the §6 control transport: an abstract-
// namespace AF_UNIX SOCK_SEQPACKET socket with SO_PASSCRED enabled, so
// every received frame carries the sender's {pid, uid, gid}, plus the §6
// authorization rule and a dispatch loop wired into internal/engine.
package control

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// PID1Address and the per-process address template are the two
// well-known abstract-namespace names §6 defines: PID 1 always binds the
// fixed name; every other sender (the CLI, a non-init session instance)
// binds a name suffixed with its own pid so replies can be addressed back.
const PID1Address = "/com/ubuntu/upstart"

// ProcessAddress returns the abstract-namespace name a non-PID-1 sender
// binds, per §6.
func ProcessAddress(pid int) string {
	return fmt.Sprintf("/com/ubuntu/upstart/%d", pid)
}

// Socket is one endpoint of the control transport: an AF_UNIX
// SOCK_SEQPACKET socket bound to an abstract-namespace address, used
// connectionlessly via sendto/recvfrom (every upstart sender addresses
// its peer directly rather than connecting a stream).
type Socket struct {
	fd int
}

// Bind creates and binds a control socket at the abstract-namespace name
// name (without the leading NUL — Bind adds it). SO_PASSCRED is enabled
// so every subsequent Recv carries peer credentials.
func Bind(name string) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		return nil, fmt.Errorf("control: socket: %w", err)
	}
	sa := &unix.SockaddrUnix{Name: "\x00" + name}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("control: bind %s: %w", name, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PASSCRED, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("control: SO_PASSCRED: %w", err)
	}
	return &Socket{fd: fd}, nil
}

// Close releases the socket's file descriptor.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}

// SendTo addresses frame to the abstract-namespace name addr (without
// the leading NUL).
func (s *Socket) SendTo(addr string, frame []byte) error {
	sa := &unix.SockaddrUnix{Name: "\x00" + addr}
	return unix.Sendto(s.fd, frame, 0, sa)
}

// Received is one inbound datagram plus the peer credentials the kernel
// attached to it and the sender's bound abstract-namespace address (for
// addressing a reply back via SendTo), when the sender supplied one.
type Received struct {
	Frame []byte
	Cred  unix.Ucred
	From  string
}

// maxFrame bounds a single control-socket datagram; §6's frames are all
// small (job names, event args), and SOCK_SEQPACKET preserves message
// boundaries so a generous fixed buffer is sufficient.
const maxFrame = 16 * 1024

// Recv blocks for the next datagram and returns its payload and peer
// credentials. Returns an error if SO_PASSCRED was not honoured (no
// credentials attached) since every caller relies on being able to
// authorize the sender.
func (s *Socket) Recv() (*Received, error) {
	buf := make([]byte, maxFrame)
	oob := make([]byte, unix.CmsgSpace(unix.SizeofUcred))

	n, oobn, _, from, err := unix.Recvmsg(s.fd, buf, oob, 0)
	if err != nil {
		return nil, fmt.Errorf("control: recvmsg: %w", err)
	}

	cred, err := parseCredentials(oob[:oobn])
	if err != nil {
		return nil, fmt.Errorf("control: no peer credentials: %w", err)
	}

	var fromAddr string
	if sa, ok := from.(*unix.SockaddrUnix); ok && len(sa.Name) > 0 {
		fromAddr = strings.TrimPrefix(sa.Name, "\x00")
	}

	return &Received{Frame: buf[:n], Cred: *cred, From: fromAddr}, nil
}

func parseCredentials(oob []byte) (*unix.Ucred, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.Header.Level == unix.SOL_SOCKET && m.Header.Type == unix.SCM_CREDENTIALS {
			return unix.ParseUnixCredentials(&m)
		}
	}
	return nil, fmt.Errorf("SCM_CREDENTIALS absent from control message")
}
