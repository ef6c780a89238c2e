//go:build linux

package engine

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/wire"
)

// uniqueAddr avoids colliding with a concurrently-running instance of
// this test binary sharing the abstract namespace, mirroring
// internal/control's own server_test.go fixture.
func uniqueAddr(tag string) string {
	return fmt.Sprintf("/upstart-engine-test/%s/%d/%d", tag, os.Getpid(), time.Now().UnixNano())
}

// controlFixture binds a server socket HandleRequest reads from and a
// client socket the test sends requests on and reads replies from.
type controlFixture struct {
	t          *testing.T
	serverSock *control.Socket
	serverAddr string
	clientSock *control.Socket
	clientAddr string
	reqs       <-chan *control.Request
	stop       chan struct{}
}

func newControlFixture(t *testing.T) *controlFixture {
	t.Helper()
	serverAddr := uniqueAddr("server")
	clientAddr := uniqueAddr("client")

	serverSock, err := control.Bind(serverAddr)
	if err != nil {
		t.Fatalf("bind server: %v", err)
	}
	clientSock, err := control.Bind(clientAddr)
	if err != nil {
		t.Fatalf("bind client: %v", err)
	}

	auth := control.NewAuthorizer(os.Getuid(), os.Getpid(), false)
	srv := control.NewServer(serverSock, auth)
	stop := make(chan struct{})

	f := &controlFixture{
		t:          t,
		serverSock: serverSock,
		serverAddr: serverAddr,
		clientSock: clientSock,
		clientAddr: clientAddr,
		reqs:       srv.Requests(stop),
		stop:       stop,
	}
	t.Cleanup(func() {
		close(stop)
		serverSock.Close()
		clientSock.Close()
	})
	return f
}

// send delivers msg to the server and returns the decoded Request once
// the authorized reader goroutine publishes it.
func (f *controlFixture) send(msg wire.Message) *control.Request {
	f.t.Helper()
	if err := f.clientSock.SendTo(f.serverAddr, wire.Encode(msg)); err != nil {
		f.t.Fatalf("send: %v", err)
	}
	select {
	case req := <-f.reqs:
		return req
	case <-time.After(2 * time.Second):
		f.t.Fatal("timed out waiting for request")
		return nil
	}
}

// recv reads and decodes one reply addressed back to the client.
func (f *controlFixture) recv() wire.Message {
	f.t.Helper()
	rx, err := f.clientSock.Recv()
	if err != nil {
		f.t.Fatalf("recv: %v", err)
	}
	msg, err := wire.Decode(rx.Frame)
	if err != nil {
		f.t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHandleRequestVersionQuery(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newControlFixture(t)

	req := f.send(&wire.VersionQuery{})
	e.HandleRequest(req)

	reply := f.recv()
	v, ok := reply.(*wire.Version)
	if !ok {
		t.Fatalf("reply = %T, want *wire.Version", reply)
	}
	if v.Version != Version {
		t.Fatalf("version = %q, want %q", v.Version, Version)
	}
}

func TestHandleRequestJobStartThenQuery(t *testing.T) {
	e, _, _ := newTestEngine()
	simpleConfig(e, "web", "", "")
	f := newControlFixture(t)

	startReq := f.send(&wire.JobStart{Name: "web"})
	e.HandleRequest(startReq)

	reply := f.recv()
	job, ok := reply.(*wire.Job)
	if !ok {
		t.Fatalf("reply = %T, want *wire.Job", reply)
	}
	if job.Name != "web" || job.ID == 0 {
		t.Fatalf("job reply = %+v, want name=web and a minted id", job)
	}

	queryReq := f.send(&wire.JobQuery{Name: "web"})
	e.HandleRequest(queryReq)

	status := f.recv().(*wire.JobStatus)
	if status.State != wire.StateRunning {
		t.Fatalf("state = %v, want running", status.State)
	}
	// drain the JobProcess/JobStatusEnd bracket
	for {
		msg := f.recv()
		if _, ok := msg.(*wire.JobStatusEnd); ok {
			break
		}
	}
}

func TestHandleRequestJobFindUnknown(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newControlFixture(t)

	req := f.send(&wire.JobFind{Pattern: "nope", HasPattern: true})
	e.HandleRequest(req)

	reply := f.recv()
	if _, ok := reply.(*wire.JobUnknown); !ok {
		t.Fatalf("reply = %T, want *wire.JobUnknown", reply)
	}
}

func TestHandleRequestEventEmitRepliesEventThenFinished(t *testing.T) {
	e, _, _ := newTestEngine()
	f := newControlFixture(t)

	req := f.send(&wire.EventEmit{Name: "test-event"})
	e.HandleRequest(req)

	first := f.recv()
	if _, ok := first.(*wire.Event); !ok {
		t.Fatalf("first reply = %T, want *wire.Event", first)
	}
	second := f.recv()
	if _, ok := second.(*wire.EventFinished); !ok {
		t.Fatalf("second reply = %T, want *wire.EventFinished", second)
	}
}
