package chain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionIDForms(t *testing.T) {
	var txs []Transaction
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1},{"id":"abc"},{"id":2.5}]`), &txs))
	require.Len(t, txs, 3)
	assert.Equal(t, "1", txs[0].ID)
	assert.Equal(t, "abc", txs[1].ID)
	assert.Equal(t, "2.5", txs[2].ID)

	var tx Transaction
	assert.Error(t, json.Unmarshal([]byte(`{"output":{}}`), &tx))
	assert.Error(t, json.Unmarshal([]byte(`{"id":null}`), &tx))
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &tx))
}

func TestTransactionKeepsUnknownFields(t *testing.T) {
	in := `{"id":"t1","input":{"timestamp":5,"amount":1000,"address":"alice","public_key":"pk","signature":[1,2]},"output":{"bob":10,"alice":990},"memo":"lunch"}`
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(in), &tx))

	assert.Equal(t, "alice", tx.Sender())
	assert.Equal(t, 10.0, tx.Output["bob"])
	assert.JSONEq(t, `[1,2]`, string(tx.Input.Signature))
	assert.False(t, tx.IsReward())

	out, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestTransactionToleratesForeignShapes(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","input":"n/a","output":[1]}`), &tx))
	assert.Equal(t, "x", tx.ID)
	assert.Empty(t, tx.Output)
}

func TestRewardTransaction(t *testing.T) {
	tx := Transaction{ID: "r", Input: TransactionInput{Address: MiningRewardAddress}, Output: map[string]float64{"miner": MiningReward}}
	assert.True(t, tx.IsReward())

	out, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r","input":{"address":"*--official-mining-reward--*"},"output":{"miner":50}}`, string(out))
}
