package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"chainview/core/mempool"
	"chainview/types/chain"
)

// StartingBalance is what a fresh wallet holds before any block touches it.
const StartingBalance = 1000

// genesis mirrors the backend's hard-coded first block.
var genesis = chain.Block{
	Timestamp:  1,
	PrevHash:   "genesis_prev_hash",
	Hash:       "genesis_hash",
	Data:       []chain.Transaction{},
	Difficulty: 3,
	Nonce:      0,
}

// ErrInsufficientFunds is returned when a transfer exceeds the wallet balance.
var ErrInsufficientFunds = errors.New("amount exceeds balance")

// Ledger is the dev node's chain and wallet. Blocks are appended without proof of work.
type Ledger struct {
	mu      sync.RWMutex
	blocks  []chain.Block
	pool    *mempool.Mempool
	address string
	now     func() time.Time
}

// NewLedger returns a ledger holding only the genesis block.
func NewLedger(pool *mempool.Mempool) *Ledger {
	return &Ledger{
		blocks:  []chain.Block{genesis},
		pool:    pool,
		address: newID(),
		now:     time.Now,
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Address is the node wallet's address.
func (l *Ledger) Address() string { return l.address }

// Blocks returns a copy of the chain, genesis first.
func (l *Ledger) Blocks() []chain.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]chain.Block(nil), l.blocks...)
}

// Balance replays the chain for address.
func (l *Ledger) Balance(address string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return balanceOf(l.blocks, address)
}

// A block output that the address itself signed resets its balance to the change it kept.
func balanceOf(blocks []chain.Block, address string) float64 {
	balance := float64(StartingBalance)
	for _, b := range blocks {
		for _, tx := range b.Data {
			if tx.Input.Address == address {
				balance = tx.Output[address]
			} else if amount, ok := tx.Output[address]; ok {
				balance += amount
			}
		}
	}
	return balance
}

// Transact creates or extends the wallet's pending transaction.
func (l *Ledger) Transact(recipient string, amount float64) (chain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx, ok := l.pool.BySender(l.address); ok {
		if amount > tx.Output[l.address] {
			return chain.Transaction{}, ErrInsufficientFunds
		}
		output := make(map[string]float64, len(tx.Output)+1)
		for k, v := range tx.Output {
			output[k] = v
		}
		output[recipient] += amount
		output[l.address] -= amount
		tx = l.signLocked(tx.ID, output, tx.Input.Amount)
		l.pool.SetTx(tx)
		return tx, nil
	}

	balance := balanceOf(l.blocks, l.address)
	if amount > balance {
		return chain.Transaction{}, ErrInsufficientFunds
	}
	output := map[string]float64{recipient: amount}
	output[l.address] = balance - amount
	tx := l.signLocked(newID(), output, balance)
	l.pool.SetTx(tx)
	return tx, nil
}

// signLocked builds the input. The dev node has no keys; the signature is a digest.
func (l *Ledger) signLocked(id string, output map[string]float64, amount float64) chain.Transaction {
	digest, _ := json.Marshal(output)
	sum := sha256.Sum256(append([]byte(l.address), digest...))
	sig, _ := json.Marshal(hex.EncodeToString(sum[:]))
	return chain.Transaction{
		ID: id,
		Input: chain.TransactionInput{
			Timestamp: l.now().UnixNano(),
			Amount:    amount,
			Address:   l.address,
			PublicKey: "dev-" + l.address,
			Signature: sig,
		},
		Output: output,
	}
}

// Mine moves the pool plus a reward transaction into a new block.
func (l *Ledger) Mine() chain.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := l.pool.GetAllTxs()
	reward := chain.Transaction{
		ID:     newID(),
		Input:  chain.TransactionInput{Address: chain.MiningRewardAddress},
		Output: map[string]float64{l.address: chain.MiningReward},
	}
	data = append(data, reward)

	last := l.blocks[len(l.blocks)-1]
	blk := chain.Block{
		Timestamp:  l.now().UnixNano(),
		PrevHash:   last.Hash,
		Data:       data,
		Difficulty: last.Difficulty,
	}
	blk.Hash = blockHash(blk)
	l.blocks = append(l.blocks, blk)

	ids := make([]string, 0, len(data))
	for _, tx := range data {
		ids = append(ids, tx.ID)
	}
	l.pool.RemoveTxs(ids)
	return blk
}

func blockHash(b chain.Block) string {
	data, _ := json.Marshal(b.Data)
	h := sha256.New()
	h.Write([]byte(b.PrevHash))
	h.Write(data)
	h.Write([]byte(time.Unix(0, b.Timestamp).UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

// KnownAddresses lists every output address in the chain.
func (l *Ledger) KnownAddresses() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := map[string]struct{}{}
	addrs := []string{}
	for _, b := range l.blocks {
		for _, tx := range b.Data {
			for addr := range tx.Output {
				if _, ok := seen[addr]; !ok {
					seen[addr] = struct{}{}
					addrs = append(addrs, addr)
				}
			}
		}
	}
	return addrs
}

// Seed appends blocks of two transfers each between throwaway wallets and leaves
// pending transfers in the pool, so a fresh node has something to show.
func (l *Ledger) Seed(blocks, pending int, rng *rand.Rand) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < blocks; i++ {
		last := l.blocks[len(l.blocks)-1]
		blk := chain.Block{
			Timestamp:  l.now().UnixNano(),
			PrevHash:   last.Hash,
			Data:       []chain.Transaction{l.strangerTx(rng), l.strangerTx(rng)},
			Difficulty: last.Difficulty,
		}
		blk.Hash = blockHash(blk)
		l.blocks = append(l.blocks, blk)
	}
	for i := 0; i < pending; i++ {
		l.pool.SetTx(l.strangerTx(rng))
	}
}

func (l *Ledger) strangerTx(rng *rand.Rand) chain.Transaction {
	sender, recipient := newID(), newID()
	amount := float64(2 + rng.Intn(49))
	return chain.Transaction{
		ID: newID(),
		Input: chain.TransactionInput{
			Timestamp: l.now().UnixNano(),
			Amount:    StartingBalance,
			Address:   sender,
			PublicKey: "dev-" + sender,
		},
		Output: map[string]float64{recipient: amount, sender: StartingBalance - amount},
	}
}
