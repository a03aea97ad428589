// Package pool implements the transaction pool view: it keeps a polled copy of the
// backend's pending transactions and lets the user ask the backend to mine them.
package pool

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"chainview/core/clock"
	"chainview/core/nav"
	"chainview/core/notify"
	"chainview/core/render"
	"chainview/types/chain"
)

// PollMultiplier is how many configured time units pass between pool fetches.
const PollMultiplier = 10

// PollInterval returns the poll period for a configured unit (one "second").
func PollInterval(unit time.Duration) time.Duration {
	return PollMultiplier * unit
}

const (
	// MinedMessage is shown once the backend accepted a mining request.
	MinedMessage = "Mining has begun!"
	// MineLabel is the label of the mine action.
	MineLabel = "Mine a block of these transactions. Earn 50 coins!"
)

// ErrNotMounted is returned by operations that need a mounted view.
var ErrNotMounted = errors.New("transaction pool view is not mounted")

// Source fetches the pending transaction pool.
type Source interface {
	Transactions(ctx context.Context) ([]chain.Transaction, error)
}

// Miner triggers mining on the backend.
type Miner interface {
	MineBlock(ctx context.Context) (chain.Block, error)
}

// Recorder keeps a copy of every pool the view applied.
type Recorder interface {
	SavePool(txs []chain.Transaction) error
}

// Config wires a View to its collaborators. Recorder and OnChange are optional.
type Config struct {
	Source    Source
	Miner     Miner
	Clock     clock.Clock
	Interval  time.Duration
	Navigator nav.Navigator
	Notifier  notify.Notifier
	Renderer  render.TransactionRenderer
	Recorder  Recorder
	OnChange  func()
}

// View is the transaction pool view. The zero value is not usable; use New.
type View struct {
	cfg Config

	mu         sync.Mutex
	txs        []chain.Transaction
	err        error
	mounted    bool
	generation uint64
	issued     uint64 // sequence of the last fetch started
	applied    uint64 // sequence of the last fetch whose result was kept
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New validates cfg and returns an unmounted view.
func New(cfg Config) (*View, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("pool view needs a transaction source")
	case cfg.Miner == nil:
		return nil, errors.New("pool view needs a miner")
	case cfg.Navigator == nil:
		return nil, errors.New("pool view needs a navigator")
	case cfg.Notifier == nil:
		return nil, errors.New("pool view needs a notifier")
	case cfg.Interval <= 0:
		return nil, errors.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.Transactions{Format: render.FormatPlain}
	}
	return &View{cfg: cfg}, nil
}

// Mount starts polling: one fetch right away, then one per interval until Unmount.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted {
		return errors.New("transaction pool view is already mounted")
	}
	ctx, cancel := context.WithCancel(ctx)
	v.mounted = true
	v.generation++
	v.cancel = cancel
	v.txs = nil
	v.err = nil
	v.issued, v.applied = 0, 0

	ticker := v.cfg.Clock.NewTicker(v.cfg.Interval)
	gen := v.generation
	v.spawnLoadLocked(ctx, gen)
	v.wg.Add(1)
	go v.poll(ctx, ticker, gen)
	log.Printf("[POOL] Mounted, polling every %s", v.cfg.Interval)
	return nil
}

// Unmount stops polling, cancels in-flight fetches and drops the view state.
// It returns once no fetch started by this mount can touch the view.
func (v *View) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.generation++
	v.cancel()
	v.mu.Unlock()

	v.wg.Wait()

	v.mu.Lock()
	v.txs = nil
	v.err = nil
	v.mu.Unlock()
	log.Printf("[POOL] Unmounted")
}

func (v *View) poll(ctx context.Context, ticker clock.Ticker, gen uint64) {
	defer v.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			v.mu.Lock()
			if !v.liveLocked(gen) {
				v.mu.Unlock()
				return
			}
			v.spawnLoadLocked(ctx, gen)
			v.mu.Unlock()
		}
	}
}

// spawnLoadLocked starts one background fetch. Fetches may overlap; see apply.
func (v *View) spawnLoadLocked(ctx context.Context, gen uint64) {
	v.issued++
	seq := v.issued
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		_ = v.load(ctx, gen, seq)
	}()
}

// LoadPool fetches the pool now and replaces the view state with the result.
func (v *View) LoadPool(ctx context.Context) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrNotMounted
	}
	gen := v.generation
	v.issued++
	seq := v.issued
	v.mu.Unlock()
	return v.load(ctx, gen, seq)
}

func (v *View) load(ctx context.Context, gen, seq uint64) error {
	txs, err := v.cfg.Source.Transactions(ctx)
	applied, err := v.apply(gen, seq, txs, err)
	if !applied {
		return err
	}
	if err != nil {
		log.Printf("[POOL] Failed to load transaction pool: %v", err)
		err = notify.Shown(err)
	} else {
		log.Printf("[POOL] Loaded %d transaction(s)", len(txs))
		if v.cfg.Recorder != nil {
			if rerr := v.cfg.Recorder.SavePool(txs); rerr != nil {
				log.Printf("[POOL] Failed to record pool snapshot: %v", rerr)
			}
		}
	}
	v.changed()
	return err
}

// apply stores a fetch result unless the view was torn down or a newer fetch already
// landed. It reports whether the view state changed.
func (v *View) apply(gen, seq uint64, txs []chain.Transaction, err error) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.liveLocked(gen) {
		return false, ErrNotMounted
	}
	if seq < v.applied {
		return false, err
	}
	v.applied = seq
	if err != nil {
		v.err = err
		return true, err
	}
	v.txs = txs
	v.err = nil
	return true, nil
}

func (v *View) liveLocked(gen uint64) bool {
	return v.mounted && v.generation == gen
}

// MineBlock asks the backend to mine. On success the user is told mining has begun and
// the app moves to the blockchain route; on failure the user is told it failed.
func (v *View) MineBlock(ctx context.Context) error {
	_, err := v.cfg.Miner.MineBlock(ctx)
	if err != nil {
		log.Printf("[POOL] Mine trigger failed: %v", err)
		v.mu.Lock()
		if v.mounted {
			v.err = err
		}
		v.mu.Unlock()
		v.cfg.Notifier.Notify(notify.Error(nav.RouteTransactionPool, fmt.Sprintf("Mining could not be started: %v", err)))
		v.changed()
		return notify.Shown(err)
	}
	log.Printf("[POOL] Mining triggered")
	v.cfg.Notifier.Notify(notify.Info(nav.RouteTransactionPool, MinedMessage))
	v.cfg.Navigator.Push(nav.RouteBlockchain)
	return nil
}

// Transactions returns a copy of the current view state.
func (v *View) Transactions() []chain.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]chain.Transaction(nil), v.txs...)
}

// Err returns the error of the last fetch or mine attempt, nil after a successful fetch.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Mounted reports whether the view is polling.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

func (v *View) changed() {
	if v.cfg.OnChange != nil {
		v.cfg.OnChange()
	}
}

// Title names the view.
func (v *View) Title() string { return "Transaction Pool" }

// Render draws the links, one entry per transaction and the mine action.
func (v *View) Render(w io.Writer) error {
	v.mu.Lock()
	txs := append([]chain.Transaction(nil), v.txs...)
	err := v.err
	v.mu.Unlock()

	render.Links(w, nav.Links())
	fmt.Fprintf(w, "\n%s\n", v.Title())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	for _, tx := range txs {
		fmt.Fprintf(w, "%s [%s]\n", render.Separator, tx.ID)
		if rerr := v.cfg.Renderer.RenderTransaction(w, tx); rerr != nil {
			return rerr
		}
	}
	fmt.Fprintln(w, render.Separator)
	_, werr := fmt.Fprintf(w, "[m] %s\n", MineLabel)
	return werr
}

// Handle runs a view command: "m" mines, "r" refreshes.
func (v *View) Handle(ctx context.Context, cmd string) (bool, error) {
	switch cmd {
	case "m", "mine":
		return true, v.MineBlock(ctx)
	case "r", "refresh":
		return true, v.LoadPool(ctx)
	}
	return false, nil
}
