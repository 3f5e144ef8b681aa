package network_test

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/tran"
)

func TestRequestRoundTrip(t *testing.T) {
	tx := tran.NewCoinbase("miner", currency.Amount(5), 100)

	var buf bytes.Buffer
	require.NoError(t, network.WriteRequest(&buf, network.CmdTransaction, tx))

	req, err := network.ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, network.CmdTransaction, req.Command)
	assert.Contains(t, req.Data, `"COINBASE"`)
}

func TestRequestEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, network.WriteRequest(&buf, network.CmdGetChain, nil))

	req, err := network.ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, network.CmdGetChain, req.Command)
	assert.Empty(t, req.Data)
}

func TestChainStreamRoundTrip(t *testing.T) {
	genesis := block.New(0, 100, nil, "")
	cb := tran.NewCoinbase("miner", currency.Amount(5), 200)
	b1 := block.New(1, 300, []tran.Transaction{cb}, genesis.Hash)
	blocks := []block.Block{genesis, b1}

	var buf bytes.Buffer
	require.NoError(t, network.WriteChain(&buf, blocks))

	got, err := network.ReadChain(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, genesis.Hash, got[0].Hash)
	assert.Equal(t, b1.Hash, got[1].Hash)
	require.Len(t, got[1].Transactions, 1)
}

// trickleReader returns one byte per read so frames always split across
// reads.
type trickleReader struct {
	data []byte
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}

	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestChainStreamPartialReads(t *testing.T) {
	genesis := block.New(0, 100, nil, "")
	b1 := block.New(1, 300, nil, genesis.Hash)

	var buf bytes.Buffer
	require.NoError(t, network.WriteChain(&buf, []block.Block{genesis, b1}))

	got, err := network.ReadChain(&trickleReader{data: buf.Bytes()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b1.Hash, got[1].Hash)
}

func TestChainStreamOverSocket(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	blocks := []block.Block{block.New(0, 100, nil, "")}

	go func() {
		defer server.Close()
		network.WriteChain(server, blocks)
	}()

	got, err := network.ReadChain(client)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, blocks[0].Hash, got[0].Hash)
}

func TestPayloadTagging(t *testing.T) {
	tx := tran.NewCoinbase("miner", currency.Amount(5), 100)
	b := block.New(1, 200, nil, "prev")

	assert.Equal(t, network.CmdTransaction, network.TransactionPayload(tx).Command)
	assert.Equal(t, network.CmdNewBlock, network.BlockPayload(b).Command)
}
