package honeypot

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []types.AttemptRecord
}

func (m *memoryRecorder) Record(rec types.AttemptRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *memoryRecorder) all() []types.AttemptRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AttemptRecord(nil), m.records...)
}

// runHandler starts the handler on one end of a pipe and returns the peer end.
// The returned channel is closed once Handle returned.
func runHandler(t *testing.T, service types.Service, config HandlerConfig) (net.Conn, <-chan struct{}) {
	t.Helper()
	handler, err := NewHandler(service, config)
	require.NoError(t, err)
	require.Equal(t, service, handler.Service())

	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Handle(server, "192.0.2.10")
	}()
	t.Cleanup(func() { client.Close() })
	return client, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return")
	}
}

func readExactly(t *testing.T, r io.Reader, n int) string {
	t.Helper()
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	return string(buf)
}

func TestSSHHandler(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceSSH, HandlerConfig{Recorder: rec})

	assert.Equal(t, "SSH-2.0-OpenSSH_7.4\r\n", readExactly(t, client, len(sshBanner)))
	_, err := client.Write([]byte("SSH-2.0-Go\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Permission denied (publickey,password).\r\n", readExactly(t, client, len(sshDenied)))

	// the handler closes its side
	_, err = client.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, types.ServiceSSH, records[0].Service)
	assert.Equal(t, "192.0.2.10", records[0].ClientIP)
	assert.Equal(t, "SSH-2.0-Go", records[0].Data)
}

func TestSSHHandlerSilentPeer(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceSSH, HandlerConfig{Recorder: rec})

	readExactly(t, client, len(sshBanner))
	client.Close()
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Data)
}

func TestSSHHandlerBannerWriteFails(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceSSH, HandlerConfig{Recorder: rec})
	client.Close()
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.True(t, strings.HasPrefix(records[0].Data, "Error: "), records[0].Data)
}

func TestHTTPHandler(t *testing.T) {
	payloads := []string{
		"GET / HTTP/1.1\r\nHost: example\r\n\r\n",
		"\x16\x03\x01\x02\x00\x01\x00\x01\xfc\x03\x03",
		"random garbage",
	}
	for _, payload := range payloads {
		rec := &memoryRecorder{}
		client, done := runHandler(t, types.ServiceHTTP, HandlerConfig{Recorder: rec})

		_, err := client.Write([]byte(payload))
		require.NoError(t, err)
		response, err := io.ReadAll(client)
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n", string(response))
		waitDone(t, done)

		records := rec.all()
		require.Len(t, records, 1)
		assert.Equal(t, types.ServiceHTTP, records[0].Service)
		assert.True(t, utf8.ValidString(records[0].Data))
	}
}

func TestHTTPHandlerSilentPeer(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceHTTP, HandlerConfig{Recorder: rec})
	client.Close()
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Data)
}

func TestHTTPHandlerBoundedRead(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceHTTP, HandlerConfig{Recorder: rec, ReadSize: 8})

	go client.Write([]byte("GET /aaaaaaaaaaaaaaaaaaaaaa HTTP/1.1\r\n\r\n"))
	readExactly(t, client, len(httpNotFound))
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "GET /aaa", records[0].Data)
}

func TestFTPHandlerUserPass(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceFTP, HandlerConfig{Recorder: rec})
	reader := bufio.NewReader(client)

	banner, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "220 FTP Server ready.\r\n", banner)

	_, err = client.Write([]byte("USER bob\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "331 Password required.\r\n", line)

	_, err = client.Write([]byte("PASS x\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "530 Login incorrect.\r\n", line)

	records := rec.all()
	require.Len(t, records, 2)
	assert.Equal(t, "USER bob", records[0].Data)
	assert.Equal(t, "PASS x", records[1].Data)

	client.Close()
	waitDone(t, done)
	assert.Len(t, rec.all(), 2)
}

func TestFTPHandlerSilentPeer(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceFTP, HandlerConfig{Recorder: rec})

	readExactly(t, client, len(ftpBanner))
	client.Close()
	waitDone(t, done)
	assert.Empty(t, rec.all())
}

func TestFTPHandlerInvalidUTF8(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceFTP, HandlerConfig{Recorder: rec})

	readExactly(t, client, len(ftpBanner))
	_, err := client.Write([]byte("user \xff\xfe\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "331 Password required.\r\n", readExactly(t, client, len(ftpPasswordRequired)))
	client.Close()
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.True(t, utf8.ValidString(records[0].Data))
	assert.True(t, strings.HasPrefix(records[0].Data, "user "))
}

func TestFTPResponse(t *testing.T) {
	cases := map[string][]byte{
		"USER anonymous": ftpPasswordRequired,
		"user anonymous": ftpPasswordRequired,
		"PASS secret":    ftpLoginIncorrect,
		"pAsS":           ftpLoginIncorrect,
		"SYST":           ftpNotImplemented,
		"":               ftpNotImplemented,
		"XUSER":          ftpNotImplemented,
	}
	for command, want := range cases {
		assert.Equal(t, string(want), string(ftpResponse(command)), command)
	}
}

func TestIdleTimeout(t *testing.T) {
	rec := &memoryRecorder{}
	client, done := runHandler(t, types.ServiceHTTP, HandlerConfig{Recorder: rec, IdleTimeout: 20 * time.Millisecond})
	_ = client
	waitDone(t, done)

	records := rec.all()
	require.Len(t, records, 1)
	assert.True(t, strings.HasPrefix(records[0].Data, "Error: "), records[0].Data)
	assert.Contains(t, records[0].Data, "i/o timeout")
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(types.Service("TELNET"), HandlerConfig{Recorder: &memoryRecorder{}})
	assert.Error(t, err)

	_, err = NewHandler(types.ServiceSSH, HandlerConfig{})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "hello", decode([]byte("  hello\r\n")))
	assert.Equal(t, "a\uFFFDb", decode([]byte("a\xffb")))
	assert.Equal(t, "", decode(nil))
}
