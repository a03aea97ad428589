package chain

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Transaction is a pending or mined transaction as the backend serializes it.
// Only ID is required; everything else is kept verbatim in Raw.
type Transaction struct {
	ID     string             `json:"id"`
	Input  TransactionInput   `json:"input"`
	Output map[string]float64 `json:"output,omitempty"`
	Raw    json.RawMessage    `json:"-"`
}

// TransactionInput is the signed sender side of a transaction.
type TransactionInput struct {
	Timestamp int64           `json:"timestamp,omitempty"`
	Amount    float64         `json:"amount,omitempty"`
	Address   string          `json:"address,omitempty"`
	PublicKey string          `json:"public_key,omitempty"`
	Signature json.RawMessage `json:"signature,omitempty"`
}

// UnmarshalJSON accepts string or numeric ids and tolerates any input/output shape.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID     json.RawMessage `json:"id"`
		Input  json.RawMessage `json:"input"`
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := decodeID(wire.ID)
	if err != nil {
		return err
	}
	*t = Transaction{ID: id, Raw: append(json.RawMessage(nil), data...)}
	// Reward transactions and foreign backends use other shapes; ignore what doesn't fit.
	if len(wire.Input) > 0 {
		_ = json.Unmarshal(wire.Input, &t.Input)
	}
	if len(wire.Output) > 0 {
		_ = json.Unmarshal(wire.Output, &t.Output)
	}
	return nil
}

// MarshalJSON writes Raw back unchanged when the transaction was decoded from the wire.
func (t Transaction) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type plain Transaction
	return json.Marshal(plain(t))
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("transaction has no id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.Errorf("transaction id must be a string or number, got %s", raw)
	}
	return n.String(), nil
}

// Sender returns the input address, or "" for reward transactions.
func (t Transaction) Sender() string {
	return t.Input.Address
}

// IsReward reports whether the transaction was minted by the miner.
func (t Transaction) IsReward() bool {
	return t.Input.Address == MiningRewardAddress
}

const (
	// MiningRewardAddress is the input address the backend uses for reward transactions.
	MiningRewardAddress = "*--official-mining-reward--*"
	// MiningReward is what a reward transaction pays the miner.
	MiningReward = 50
)

// Block is one block of the chain.
type Block struct {
	Timestamp  int64         `json:"timestamp"`
	PrevHash   string        `json:"prev_hash"`
	Hash       string        `json:"hash"`
	Data       []Transaction `json:"data"`
	Difficulty int           `json:"difficulty"`
	Nonce      int64         `json:"nonce"`
}

// WalletInfo is the backend's own wallet.
type WalletInfo struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}
