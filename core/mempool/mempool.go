package mempool

import (
	"sync"

	"chainview/types/chain"
)

// Mempool holds pending transactions in arrival order.
type Mempool struct {
	mu     sync.Mutex
	txs    map[string]chain.Transaction // ID -> Transaction
	order  []string                     // FIFO order for eviction
	maxTxs int
}

// NewMempool creates a new mempool with a maximum size
func NewMempool(maxTxs int) *Mempool {
	return &Mempool{
		txs:    make(map[string]chain.Transaction),
		order:  make([]string, 0),
		maxTxs: maxTxs,
	}
}

// SetTx inserts tx, or replaces the transaction with the same ID in place.
// Returns false if tx is new and the pool evicted its oldest entry to fit it.
func (mp *Mempool) SetTx(tx chain.Transaction) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, exists := mp.txs[tx.ID]; exists {
		mp.txs[tx.ID] = tx
		return true
	}
	evicted := false
	if mp.maxTxs > 0 && len(mp.txs) >= mp.maxTxs {
		oldest := mp.order[0]
		delete(mp.txs, oldest)
		mp.order = mp.order[1:]
		evicted = true
	}
	mp.txs[tx.ID] = tx
	mp.order = append(mp.order, tx.ID)
	return !evicted
}

// GetTx returns a transaction by ID
func (mp *Mempool) GetTx(id string) (chain.Transaction, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	tx, ok := mp.txs[id]
	return tx, ok
}

// BySender returns the pending transaction sent from address, if any.
func (mp *Mempool) BySender(address string) (chain.Transaction, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	for _, id := range mp.order {
		if tx := mp.txs[id]; tx.Sender() == address {
			return tx, true
		}
	}
	return chain.Transaction{}, false
}

// GetAllTxs returns all transactions in the pool, oldest first
func (mp *Mempool) GetAllTxs() []chain.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	txs := make([]chain.Transaction, 0, len(mp.txs))
	for _, id := range mp.order {
		txs = append(txs, mp.txs[id])
	}
	return txs
}

// RemoveTxs drops every listed ID, e.g. once they are in a block.
func (mp *Mempool) RemoveTxs(ids []string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := mp.txs[id]; ok {
			drop[id] = struct{}{}
			delete(mp.txs, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := mp.order[:0]
	for _, id := range mp.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	mp.order = kept
}

// Len returns the number of pending transactions.
func (mp *Mempool) Len() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.txs)
}
