package replication

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wangbo/goredis-server/internal/resp"
)

// DialTimeout bounds how long the initial connect to a configured
// master may take.
const DialTimeout = 5 * time.Second

// Handshake performs the replica-side bootstrap of SPEC_FULL.md §4.5:
// PING, REPLCONF listening-port, REPLCONF capa psync2, PSYNC ? -1, then
// reads and discards the FULLRESYNC line and the RDB bulk payload. It
// returns a reader positioned exactly at the start of the propagated
// command stream.
func Handshake(conn net.Conn, ownPort int) (*bufio.Reader, error) {
	reader := bufio.NewReader(conn)

	if err := sendArray(conn, "PING"); err != nil {
		return nil, fmt.Errorf("replication: sending PING: %w", err)
	}
	if _, err := readLine(reader); err != nil {
		return nil, fmt.Errorf("replication: reading PING reply: %w", err)
	}

	if err := sendArray(conn, "REPLCONF", "listening-port", strconv.Itoa(ownPort)); err != nil {
		return nil, fmt.Errorf("replication: sending REPLCONF listening-port: %w", err)
	}
	if _, err := readLine(reader); err != nil {
		return nil, fmt.Errorf("replication: reading REPLCONF reply: %w", err)
	}

	if err := sendArray(conn, "REPLCONF", "capa", "psync2"); err != nil {
		return nil, fmt.Errorf("replication: sending REPLCONF capa: %w", err)
	}
	if _, err := readLine(reader); err != nil {
		return nil, fmt.Errorf("replication: reading REPLCONF capa reply: %w", err)
	}

	if err := sendArray(conn, "PSYNC", "?", "-1"); err != nil {
		return nil, fmt.Errorf("replication: sending PSYNC: %w", err)
	}
	fullresync, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("replication: reading FULLRESYNC reply: %w", err)
	}
	if !strings.HasPrefix(fullresync, "+FULLRESYNC") {
		return nil, fmt.Errorf("replication: unexpected PSYNC reply: %q", fullresync)
	}

	if err := discardRDBBulk(reader); err != nil {
		return nil, fmt.Errorf("replication: reading RDB payload: %w", err)
	}

	return reader, nil
}

// Run ingests the propagated command stream from an already
// handshaken master connection, applying each frame through dispatch
// until the connection closes or ctx is cancelled. Replies are never
// sent back to the master.
func Run(ctx context.Context, conn net.Conn, reader *bufio.Reader, dispatch func(resp.Frame)) error {
	decoder := resp.NewDecoder()
	buf := make([]byte, 4096)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		for {
			frame, ok, err := decoder.Next()
			if err != nil {
				return fmt.Errorf("replication: malformed frame from master: %w", err)
			}
			if !ok {
				break
			}
			dispatch(*frame)
		}

		n, err := reader.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("replication: reading from master: %w", err)
		}
	}
}

func sendArray(w io.Writer, parts ...string) error {
	b := make([]byte, 0, 64)
	b = append(b, '*')
	b = strconv.AppendInt(b, int64(len(parts)), 10)
	b = append(b, '\r', '\n')
	for _, p := range parts {
		b = append(b, '$')
		b = strconv.AppendInt(b, int64(len(p)), 10)
		b = append(b, '\r', '\n')
		b = append(b, p...)
		b = append(b, '\r', '\n')
	}
	_, err := w.Write(b)
	return err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// discardRDBBulk reads the "$<len>\r\n<len bytes>" RDB framing with no
// trailing CRLF after the binary body, and discards the bytes.
func discardRDBBulk(r *bufio.Reader) error {
	header, err := readLine(r)
	if err != nil {
		return err
	}
	if len(header) == 0 || header[0] != '$' {
		return fmt.Errorf("expected RDB bulk header, got %q", header)
	}
	size, err := strconv.Atoi(header[1:])
	if err != nil || size < 0 {
		return fmt.Errorf("invalid RDB bulk length %q", header[1:])
	}
	_, err = io.CopyN(io.Discard, r, int64(size))
	return err
}
