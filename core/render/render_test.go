package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainview/types/chain"
)

func decodeTx(t *testing.T, s string) chain.Transaction {
	t.Helper()
	var tx chain.Transaction
	require.NoError(t, json.Unmarshal([]byte(s), &tx))
	return tx
}

func TestRenderTransactionPlain(t *testing.T) {
	tx := decodeTx(t, `{"id":"ab12cd34","input":{"timestamp":0,"amount":1000,"address":"alice"},"output":{"bob":25,"alice":975}}`)
	var buf bytes.Buffer
	require.NoError(t, Transactions{Format: FormatPlain}.RenderTransaction(&buf, tx))

	out := buf.String()
	assert.Contains(t, out, "Transaction ab12cd34\n")
	assert.Contains(t, out, "From: alice (balance 1000)")
	assert.Contains(t, out, "  Sent: 975 -> alice\n  Sent: 25 -> bob\n", "recipients are sorted")
}

func TestRenderRewardTransaction(t *testing.T) {
	tx := decodeTx(t, `{"id":"r1","input":{"address":"*--official-mining-reward--*"},"output":{"miner":50}}`)
	var buf bytes.Buffer
	require.NoError(t, Transactions{}.RenderTransaction(&buf, tx))
	assert.Contains(t, buf.String(), "From: mining reward")
}

func TestListJSONKeepsRawPayload(t *testing.T) {
	txs := []chain.Transaction{decodeTx(t, `{"id":1,"extra":{"k":"v"}}`)}
	var buf bytes.Buffer
	require.NoError(t, Transactions{Format: FormatJSON}.List(&buf, txs))
	assert.JSONEq(t, `[{"id":1,"extra":{"k":"v"}}]`, buf.String())
}

func TestListJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Transactions{Format: FormatJSON}.List(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestRenderRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Transactions{Format: FormatRaw}.RenderTransaction(&buf, chain.Transaction{ID: "x1"}))
	assert.Contains(t, buf.String(), `ID: (string) (len=2) "x1"`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestBlocksPlain(t *testing.T) {
	var buf bytes.Buffer
	b := chain.Block{Hash: "0123456789abcdef0123", PrevHash: "genesis_last_hash", Difficulty: 3, Nonce: 7}
	require.NoError(t, Blocks{}.List(&buf, []chain.Block{b}))
	assert.Contains(t, buf.String(), "Block 0123456789abcde...")
	assert.Contains(t, buf.String(), "Difficulty: 3  Nonce: 7")
}
