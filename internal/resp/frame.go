// Package resp implements the subset of the Redis serialization protocol
// this server speaks: arrays of bulk strings for requests, and simple
// strings / bulk strings / null bulk strings for replies.
package resp

import "fmt"

// Frame is a single decoded command: its name, its arguments, and the
// exact bytes it was framed in. Raw must be kept verbatim so write
// commands can be re-broadcast byte-for-byte to replicas.
type Frame struct {
	Name string
	Args []string
	Raw  []byte
}

// ErrProtocol marks a frame the decoder could not parse. It is always
// fatal to the connection that produced it.
type ErrProtocol struct {
	Reason string
}

func (e *ErrProtocol) Error() string {
	return fmt.Sprintf("resp: %s", e.Reason)
}

func protocolErr(reason string) error {
	return &ErrProtocol{Reason: reason}
}
