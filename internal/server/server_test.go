package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wangbo/goredis-server/internal/config"
)

// startTestServer boots a server on an ephemeral port and returns its
// address along with a cancel func to shut it down.
func startTestServer(t *testing.T, cfg *config.Config) (string, context.CancelFunc) {
	t.Helper()
	if cfg.Port == 0 {
		cfg.Port = freePort(t)
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}

	srv := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan error, 1)
	go func() {
		ready <- srv.Run(ctx)
	}()

	addr := cfg.Host + ":" + portString(cfg.Port)
	waitForListener(t, addr)
	return addr, cancel
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func portString(p int) string {
	return fmtInt(p)
}

func fmtInt(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func waitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server never started listening on %s", addr)
}

func TestPingOverTheWire(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	reply := readN(t, conn, 7)
	require.Equal(t, "+PONG\r\n", reply)
}

func TestSetThenGetOverTheWire(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", readN(t, conn, 5))

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	require.NoError(t, err)
	require.Equal(t, "$3\r\nbar\r\n", readN(t, conn, 9))
}

func TestTTLExpiryOverTheWire(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*5\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n$2\r\nPX\r\n$3\r\n100\r\n"))
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", readN(t, conn, 5))

	time.Sleep(200 * time.Millisecond)

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	require.NoError(t, err)
	require.Equal(t, "$-1\r\n", readN(t, conn, 5))
}

func TestInfoReplicationOnMaster(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*2\r\n$4\r\nINFO\r\n$11\r\nreplication\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	header, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, byte('$'), header[0])

	body := make([]byte, 200)
	n, _ := reader.Read(body)
	require.Contains(t, string(body[:n]), "role:master")
	require.Contains(t, string(body[:n]), "master_replid:")
}

func TestUnknownCommandDoesNotCloseConnection(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*1\r\n$7\r\nNOTACMD\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "ERR unknown command")

	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", line)
}

func TestPSyncThenPropagatedSetReachesReplica(t *testing.T) {
	addr, cancel := startTestServer(t, &config.Config{LogLevel: "error"})
	defer cancel()

	replicaConn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer replicaConn.Close()

	_, err = replicaConn.Write([]byte("*3\r\n$5\r\nPSYNC\r\n$1\r\n?\r\n$2\r\n-1\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(replicaConn)
	fullresync, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, fullresync, "FULLRESYNC")

	rdbHeader, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, byte('$'), rdbHeader[0])
	var rdbLen int
	_, err = fmtSscan(rdbHeader[1:], &rdbLen)
	require.NoError(t, err)
	_, err = readExactly(reader, rdbLen)
	require.NoError(t, err)

	clientConn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer clientConn.Close()
	_, err = clientConn.Write([]byte("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"))
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", readN(t, clientConn, 5))

	propagated := make([]byte, len("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"))
	_, err = readFull(reader, propagated)
	require.NoError(t, err)
	require.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", string(propagated))
}

func readN(t *testing.T, conn net.Conn, n int) string {
	t.Helper()
	buf := make([]byte, n)
	_, err := readFull(bufio.NewReader(conn), buf)
	require.NoError(t, err)
	return string(buf)
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readExactly(r interface{ Read([]byte) (int, error) }, n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := readFull(r, buf)
	return buf, err
}

func fmtSscan(s string, out *int) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	*out = n
	return 1, nil
}
