// Package network implements the peer wire protocol: framed command
// requests, the delimited chain stream, and the client helpers the actors
// use to talk to other nodes.
package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Commands understood by the peer server.
const (
	CmdRegister    = "register"
	CmdTransaction = "transaction"
	CmdNewBlock    = "new_block"
	CmdGetChain    = "get_blockchain"
)

// Chain stream framing. Each block is followed by the end-of-block
// delimiter; the end-of-chain sentinel closes the stream.
const (
	EndBlock = "<END_BLOCK>\n"
	EndChain = "<END_CHAIN>"
)

// dialTimeout bounds how long a session open may take before the peer is
// considered dead.
const dialTimeout = 5 * time.Second

// Request is the framed message exchanged between peers. Data carries the
// serialized command-specific payload.
type Request struct {
	Command string `json:"command"`
	Data    string `json:"data"`
}

// WriteRequest frames a command and its payload onto the stream.
func WriteRequest(w io.Writer, command string, payload any) error {
	var data string

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", command, err)
		}
		data = string(raw)
	}

	raw, err := json.Marshal(Request{Command: command, Data: data})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}

	return nil
}

// ReadRequest decodes a single framed request from the stream.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("decoding request: %w", err)
	}

	return req, nil
}

// WriteChain streams every block in order, delimiter-separated, terminated
// by the end-of-chain sentinel. The receiver never needs the whole chain in
// one read.
func WriteChain(w io.Writer, blocks []block.Block) error {
	for _, b := range blocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encoding block %d: %w", b.Index, err)
		}

		if _, err := w.Write(append(raw, []byte(EndBlock)...)); err != nil {
			return fmt.Errorf("writing block %d: %w", b.Index, err)
		}
	}

	if _, err := w.Write([]byte(EndChain + EndBlock)); err != nil {
		return fmt.Errorf("writing chain sentinel: %w", err)
	}

	return nil
}

// ReadChain consumes a delimited chain stream, tolerating frames split
// across reads, until the sentinel or the connection closes.
func ReadChain(r io.Reader) ([]block.Block, error) {
	var blocks []block.Block
	var buf bytes.Buffer
	tmp := make([]byte, 4096)

	for {
		n, err := r.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])

			for {
				i := bytes.Index(buf.Bytes(), []byte(EndBlock))
				if i < 0 {
					break
				}

				frame := strings.TrimSpace(string(buf.Next(i + len(EndBlock))[:i]))
				if frame == EndChain {
					return blocks, nil
				}

				var b block.Block
				if err := json.Unmarshal([]byte(frame), &b); err != nil {
					return nil, fmt.Errorf("decoding streamed block: %w", err)
				}
				blocks = append(blocks, b)
			}
		}

		switch {
		case err == io.EOF:
			return blocks, nil
		case err != nil:
			return nil, fmt.Errorf("reading chain stream: %w", err)
		}
	}
}

// =============================================================================
// Client helpers.

// Dial opens a session to a peer with a bounded timeout.
func Dial(address string) (net.Conn, error) {
	return net.DialTimeout("tcp", address, dialTimeout)
}

// Send opens a session, frames a single fire-and-forget request, and closes.
func Send(address string, command string, payload any) error {
	conn, err := Dial(address)
	if err != nil {
		return err
	}
	defer conn.Close()

	return WriteRequest(conn, command, payload)
}

// Register introduces this node to a peer and returns the peer-address set
// the peer replies with.
func Register(address string, self Registration) ([]string, error) {
	conn, err := Dial(address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := WriteRequest(conn, CmdRegister, self); err != nil {
		return nil, err
	}

	var peers []string
	if err := json.NewDecoder(conn).Decode(&peers); err != nil {
		return nil, fmt.Errorf("decoding peer set reply: %w", err)
	}

	return peers, nil
}

// Registration is the register payload: who this node is and where its peer
// server listens.
type Registration struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// FetchChain requests and receives a peer's full chain.
func FetchChain(address string) ([]block.Block, error) {
	conn, err := Dial(address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := WriteRequest(conn, CmdGetChain, nil); err != nil {
		return nil, err
	}

	return ReadChain(conn)
}

// =============================================================================
// Broadcast payloads.

// Payload is the tagged item the broadcaster fans out to peers. The tag maps
// directly onto the wire command.
type Payload struct {
	Command string
	Value   any
}

// TransactionPayload tags a transaction for broadcast.
func TransactionPayload(tx tran.Transaction) Payload {
	return Payload{Command: CmdTransaction, Value: tx}
}

// BlockPayload tags a block for broadcast.
func BlockPayload(b block.Block) Payload {
	return Payload{Command: CmdNewBlock, Value: b}
}
