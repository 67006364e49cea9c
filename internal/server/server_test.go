package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/docserver/internal/request"
	"github.com/Brownie44l1/docserver/internal/resource"
)

const indexHTML = "<html><body>home</body></html>"

type testResponse struct {
	status  string
	headers map[string]string
	body    []byte
}

func newDocRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "private"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "private", "notes.txt"), []byte("secret notes"), 0o644))
	return root
}

func startServer(t *testing.T, resolver Resolver, mutate func(*Config)) (*Server, string) {
	t.Helper()

	if resolver == nil {
		rcfg := resource.DefaultConfig()
		rcfg.DocumentRoot = newDocRoot(t)
		rcfg.Username = "user"
		rcfg.Password = "pass"
		resolver = resource.New(rcfg, nil)
	}

	cfg := DefaultConfig()
	cfg.IdleTimeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg, resolver, &NullLogger{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return srv, ln.Addr().String()
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn, bufio.NewReader(conn)
}

func send(t *testing.T, conn net.Conn, lines ...string) {
	t.Helper()
	_, err := conn.Write([]byte(strings.Join(lines, "\r\n")))
	require.NoError(t, err)
}

// readResponse reads one response framed by Content-Length
func readResponse(t *testing.T, r *bufio.Reader) testResponse {
	t.Helper()

	status, err := r.ReadString('\n')
	require.NoError(t, err)

	res := testResponse{
		status:  strings.TrimSuffix(strings.TrimPrefix(status, "HTTP/1.1 "), "\r\n"),
		headers: make(map[string]string),
	}

	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "bad header line %q", line)
		res.headers[name] = value
	}

	n, err := strconv.Atoi(res.headers["Content-Length"])
	require.NoError(t, err)
	res.body = make([]byte, n)
	_, err = io.ReadFull(r, res.body)
	require.NoError(t, err)

	return res
}

func assertClosed(t *testing.T, r *bufio.Reader) {
	t.Helper()
	_, err := r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestKeepAliveServesSequentialRequests(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	for i := 0; i < 3; i++ {
		send(t, conn, "GET / HTTP/1.1", "Host: test", "", "")
		res := readResponse(t, r)

		assert.Equal(t, "200 OK", res.status)
		assert.Equal(t, "keep-alive", res.headers["Connection"])
		assert.Equal(t, indexHTML, string(res.body))
		assert.Contains(t, res.headers["Content-Type"], "text/html")
		assert.NotEmpty(t, res.headers["Date"])
	}
}

func TestConnectionCloseEndsSession(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	send(t, conn, "GET /index.html HTTP/1.1", "Connection: close", "", "")
	res := readResponse(t, r)

	assert.Equal(t, "200 OK", res.status)
	assert.Equal(t, "close", res.headers["Connection"])
	assertClosed(t, r)
}

func TestMalformedRequestGetsBadRequest(t *testing.T) {
	_, addr := startServer(t, nil, nil)

	for _, raw := range []string{
		"GET / HTTP/1.1\r\nHost: test\r\n",
		"GET\r\n\r\n",
		"GET / HTTP/1.1\r\nHost:test\r\n\r\n",
	} {
		conn, r := dial(t, addr)
		_, err := conn.Write([]byte(raw))
		require.NoError(t, err)

		res := readResponse(t, r)
		assert.Equal(t, "400 Bad Request", res.status, raw)
		assert.Equal(t, "close", res.headers["Connection"])
		assert.Equal(t, "Request could not be parsed by the server", string(res.body))
		assertClosed(t, r)
	}
}

func TestIdleTimeoutClosesWithoutResponse(t *testing.T) {
	srv, addr := startServer(t, nil, func(c *Config) {
		c.IdleTimeout = 100 * time.Millisecond
	})
	_, r := dial(t, addr)

	start := time.Now()
	_, err := r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Less(t, time.Since(start), 3*time.Second)

	assert.Eventually(t, func() bool {
		return srv.Stats().IdleTimeouts == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIdleTimeoutAfterKeepAliveRequest(t *testing.T) {
	_, addr := startServer(t, nil, func(c *Config) {
		c.IdleTimeout = 100 * time.Millisecond
	})
	conn, r := dial(t, addr)

	send(t, conn, "GET / HTTP/1.1", "", "")
	res := readResponse(t, r)
	assert.Equal(t, "200 OK", res.status)

	// Nothing more is sent, so the server gives up
	assertClosed(t, r)
}

func TestPrivateAreaOverTheWire(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	send(t, conn, "GET /private/notes.txt HTTP/1.1", "", "")
	res := readResponse(t, r)
	assert.Equal(t, "401 Unauthorized Status", res.status)
	assert.Equal(t, `Basic realm="Access Private Folder", charset="UTF-8"`, res.headers["WWW-Authenticate"])
	assert.Empty(t, res.body)

	// base64("user:pass")
	send(t, conn, "GET /private/notes.txt HTTP/1.1", "Authorization: Basic dXNlcjpwYXNz", "", "")
	res = readResponse(t, r)
	assert.Equal(t, "200 OK", res.status)
	assert.Equal(t, "secret notes", string(res.body))
}

func TestPostFormOverTheWire(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	send(t, conn, "POST /submit HTTP/1.1", "Content-Type: application/x-www-form-urlencoded", "", "a=1&b=2")
	res := readResponse(t, r)

	assert.Equal(t, "201 Created", res.status)
	assert.Equal(t, "application/json", res.headers["Content-Type"])
	assert.Equal(t, "utf-8", res.headers["Content-Encoding"])
	assert.JSONEq(t, `{"a":"1","b":"2"}`, string(res.body))

	send(t, conn, "POST /submit HTTP/1.1", "Content-Type: text/plain", "", "a=1")
	res = readResponse(t, r)
	assert.Equal(t, "415 Unsupported Media Type", res.status)
	assert.Equal(t, "Post content-type is not supported by the server", string(res.body))
}

func TestStatusesOverTheWire(t *testing.T) {
	_, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	send(t, conn, "GET /missing.html HTTP/1.1", "", "")
	res := readResponse(t, r)
	assert.Equal(t, "404 Not Found", res.status)
	assert.Equal(t, "Requested resource not found", string(res.body))
	assert.Equal(t, "text/plain", res.headers["Content-Type"])

	send(t, conn, "DELETE /index.html HTTP/1.1", "", "")
	res = readResponse(t, r)
	assert.Equal(t, "501 Not Implemented", res.status)
	assert.Equal(t, "Request method is not supported by the server", string(res.body))

	send(t, conn, "HEAD /index.html HTTP/1.1", "", "")
	res = readResponse(t, r)
	assert.Equal(t, "200 OK", res.status)
	assert.Equal(t, strconv.Itoa(len(indexHTML)), res.headers["Content-Length"])
}

type panicResolver struct{}

func (panicResolver) Resolve(req *request.Request) *resource.Result {
	panic("boom")
}

func TestResolverPanicGetsInternalServerError(t *testing.T) {
	srv, addr := startServer(t, panicResolver{}, nil)
	conn, r := dial(t, addr)

	send(t, conn, "GET / HTTP/1.1", "", "")
	res := readResponse(t, r)

	assert.Equal(t, "500 Internal Server Error", res.status)
	assert.Equal(t, "close", res.headers["Connection"])
	assertClosed(t, r)

	assert.Eventually(t, func() bool {
		return srv.Stats().Errors5xx == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesIdleConnections(t *testing.T) {
	srv, addr := startServer(t, nil, func(c *Config) {
		c.IdleTimeout = time.Minute
	})
	conn, r := dial(t, addr)

	send(t, conn, "GET / HTTP/1.1", "", "")
	readResponse(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), 3*time.Second)
	assertClosed(t, r)

	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestShutdownIsNotAnIdleTimeout(t *testing.T) {
	srv, addr := startServer(t, nil, func(c *Config) {
		c.IdleTimeout = time.Minute
	})
	_, r := dial(t, addr)

	// Let the server start waiting on the connection
	assert.Eventually(t, func() bool {
		return srv.Stats().ActiveConnections == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assertClosed(t, r)

	assert.Zero(t, srv.Stats().IdleTimeouts)
}

func TestShutdownDuringAccept(t *testing.T) {
	for i := 0; i < 20; i++ {
		srv, addr := startServer(t, nil, nil)

		var wg sync.WaitGroup
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				conn, err := net.DialTimeout("tcp", addr, time.Second)
				if err == nil {
					conn.Close()
				}
			}()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		require.NoError(t, srv.Shutdown(ctx))
		cancel()
		wg.Wait()

		assert.Zero(t, srv.Stats().ActiveConnections)
	}
}

func TestServeAfterClose(t *testing.T) {
	srv, err := New(DefaultConfig(), panicResolver{}, nil)
	require.NoError(t, err)
	require.NoError(t, srv.Close())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(ln), ErrServerClosed)
	assert.Nil(t, srv.Addr())
}

func TestStatsCountRequests(t *testing.T) {
	srv, addr := startServer(t, nil, nil)
	conn, r := dial(t, addr)

	send(t, conn, "GET / HTTP/1.1", "", "")
	readResponse(t, r)
	send(t, conn, "GET /nope HTTP/1.1", "Connection: close", "", "")
	readResponse(t, r)
	assertClosed(t, r)

	assert.Eventually(t, func() bool {
		s := srv.Stats()
		return s.RequestsTotal == 2 && s.Errors4xx == 1 && s.ActiveConnections == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), srv.Stats().ConnectionsTotal)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.BufferSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.IdleTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Encoding = "klingon"
	assert.Error(t, cfg.Validate())

	_, err := New(cfg, panicResolver{}, nil)
	assert.Error(t, err)
}
