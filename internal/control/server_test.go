//go:build linux

package control

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ubports/upstart/internal/wire"
)

// uniqueName avoids colliding with a concurrently-running instance of
// this test package sharing the abstract namespace.
func uniqueName(tag string) string {
	return fmt.Sprintf("/upstart-test/%s/%d/%d", tag, os.Getpid(), time.Now().UnixNano())
}

func TestServerAcceptsAuthorizedMessageAndReplies(t *testing.T) {
	serverAddr := uniqueName("server")
	clientAddr := uniqueName("client")

	serverSock, err := Bind(serverAddr)
	require.NoError(t, err)
	defer serverSock.Close()

	clientSock, err := Bind(clientAddr)
	require.NoError(t, err)
	defer clientSock.Close()

	auth := NewAuthorizer(os.Getuid(), os.Getpid(), false)
	srv := NewServer(serverSock, auth)
	stop := make(chan struct{})
	reqs := srv.Requests(stop)

	require.NoError(t, clientSock.SendTo(serverAddr, wire.Encode(&wire.VersionQuery{})))

	select {
	case req := <-reqs:
		require.IsType(t, &wire.VersionQuery{}, req.Msg)
		req.Reply(&wire.Version{Version: "test"})
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for request")
	}

	rx, err := clientSock.Recv()
	require.NoError(t, err)
	reply, err := wire.Decode(rx.Frame)
	require.NoError(t, err)
	require.IsType(t, &wire.Version{}, reply)
	require.Equal(t, "test", reply.(*wire.Version).Version)

	close(stop)
	serverSock.Close()
}

func TestServerRejectsUnauthorizedSender(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("authorization always succeeds for uid 0")
	}

	serverAddr := uniqueName("server-reject")
	clientAddr := uniqueName("client-reject")

	serverSock, err := Bind(serverAddr)
	require.NoError(t, err)
	defer serverSock.Close()

	clientSock, err := Bind(clientAddr)
	require.NoError(t, err)
	defer clientSock.Close()

	// A bogus "own uid"/"own pid" that never matches this test process
	// means every message it sends gets rejected.
	auth := NewAuthorizer(os.Getuid()+1, os.Getpid()+1, false)
	srv := NewServer(serverSock, auth)
	stop := make(chan struct{})
	reqs := srv.Requests(stop)
	defer close(stop)
	defer serverSock.Close()

	require.NoError(t, clientSock.SendTo(serverAddr, wire.Encode(&wire.VersionQuery{})))

	select {
	case <-reqs:
		t.Fatal("unauthorized message must never be published as a Request")
	case <-time.After(200 * time.Millisecond):
		// expected: nothing arrives
	}
}
