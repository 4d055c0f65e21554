package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are length-limited, keep them short
	dir, err := os.MkdirTemp("", "sa")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestSendAndReply(t *testing.T) {
	path := socketPath(t)
	srv, err := Listen(path, func(req Request) Reply {
		return Reply{OK: req.Cmd == "status", Text: req.Cmd + ":" + req.Arg}
	})
	require.NoError(t, err)
	defer srv.Close()

	rep, err := Send(path, Request{Cmd: "status", Arg: "x"}, time.Second)
	require.NoError(t, err)
	assert.True(t, rep.OK)
	assert.Equal(t, "status:x", rep.Text)
}

func TestSend_NoDaemon(t *testing.T) {
	_, err := Send(socketPath(t), Request{Cmd: "alert"}, 100*time.Millisecond)
	assert.Error(t, err)
}
