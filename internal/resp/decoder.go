package resp

import (
	"bytes"
	"strconv"
)

// Decoder is a streaming RESP array-of-bulk-strings decoder. It owns a
// persistent buffer so a caller can feed it arbitrarily small reads and
// pull out complete frames as they become available, without ever
// discarding a partially received frame.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty streaming decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends newly read bytes to the decoder's buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next attempts to extract one complete frame from the buffered bytes.
// ok is false when more bytes are needed; err is non-nil only for a
// malformed frame, which is always fatal to the connection.
func (d *Decoder) Next() (frame *Frame, ok bool, err error) {
	if len(d.buf) == 0 {
		return nil, false, nil
	}

	consumed, f, err := parseFrame(d.buf)
	if err != nil {
		return nil, false, err
	}
	if consumed == 0 {
		return nil, false, nil
	}

	f.Raw = append([]byte(nil), d.buf[:consumed]...)
	d.buf = d.buf[consumed:]
	return f, true, nil
}

// parseFrame tries to parse exactly one RESP array frame from buf. A
// return of (0, nil, nil) means buf does not yet hold a complete frame.
func parseFrame(buf []byte) (consumed int, frame *Frame, err error) {
	pos := 0

	line, n, ok := readLine(buf[pos:])
	if !ok {
		return 0, nil, nil
	}
	pos += n

	if len(line) == 0 || line[0] != '*' {
		return 0, nil, protocolErr("expected array header '*'")
	}
	count, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, nil, protocolErr("non-numeric array length")
	}
	if count < 0 {
		return 0, nil, protocolErr("negative array length")
	}

	args := make([]string, 0, count)
	for i := 0; i < count; i++ {
		hdr, n, ok := readLine(buf[pos:])
		if !ok {
			return 0, nil, nil
		}

		if len(hdr) == 0 || hdr[0] != '$' {
			return 0, nil, protocolErr("expected bulk string header '$'")
		}
		size, err := strconv.Atoi(hdr[1:])
		if err != nil {
			return 0, nil, protocolErr("non-numeric bulk length")
		}
		if size < -1 {
			return 0, nil, protocolErr("invalid bulk length")
		}

		if size == -1 {
			pos += n
			args = append(args, "")
			continue
		}

		need := n + size + 2
		if len(buf[pos:]) < need {
			return 0, nil, nil
		}

		body := buf[pos+n : pos+n+size]
		term := buf[pos+n+size : pos+n+size+2]
		if term[0] != '\r' || term[1] != '\n' {
			return 0, nil, protocolErr("missing bulk string terminator")
		}

		args = append(args, string(body))
		pos += need
	}

	name := ""
	rest := args
	if len(args) > 0 {
		name = args[0]
		rest = args[1:]
	}

	return pos, &Frame{Name: name, Args: rest}, nil
}

// readLine finds a CRLF-terminated line at the start of buf and returns
// the line (without the terminator), the number of bytes it and its
// terminator occupy, and whether a full line was found at all.
func readLine(buf []byte) (line string, n int, ok bool) {
	idx := bytes.Index(buf, []byte("\r\n"))
	if idx < 0 {
		return "", 0, false
	}
	return string(buf[:idx]), idx + 2, true
}
