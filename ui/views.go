package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"chainview/core/nav"
	"chainview/core/notify"
	"chainview/core/render"
	"chainview/core/validation"
	"chainview/types/chain"
)

// WalletSource fetches the backend wallet.
type WalletSource interface {
	WalletInfo(ctx context.Context) (chain.WalletInfo, error)
}

// Home shows the backend wallet's address and balance.
type Home struct {
	src WalletSource

	mu   sync.Mutex
	info chain.WalletInfo
	err  error
}

// NewHome returns a home page backed by src.
func NewHome(src WalletSource) *Home {
	return &Home{src: src}
}

// Title names the page.
func (h *Home) Title() string { return "Welcome to the blockchain" }

// Mount fetches the wallet. Fetch errors are shown on the page, not returned.
func (h *Home) Mount(ctx context.Context) error {
	h.load(ctx)
	return nil
}

func (h *Home) load(ctx context.Context) {
	info, err := h.src.WalletInfo(ctx)
	if err != nil {
		log.Printf("[UI] Wallet info failed: %v", err)
	}
	h.mu.Lock()
	h.info, h.err = info, err
	h.mu.Unlock()
}

// Unmount drops the fetched wallet.
func (h *Home) Unmount() {
	h.mu.Lock()
	h.info, h.err = chain.WalletInfo{}, nil
	h.mu.Unlock()
}

// Render draws the links and the wallet, or the last fetch error.
func (h *Home) Render(w io.Writer) error {
	h.mu.Lock()
	info, err := h.info, h.err
	h.mu.Unlock()

	render.Links(w, nav.Links())
	fmt.Fprintln(w, "[p] Transaction Pool")
	if err != nil {
		_, werr := fmt.Fprintf(w, "Error: %v\n", err)
		return werr
	}
	fmt.Fprintf(w, "Address: %s\n", info.Address)
	_, werr := fmt.Fprintf(w, "Balance: %g\n", info.Balance)
	return werr
}

// Handle reloads the wallet on "r".
func (h *Home) Handle(ctx context.Context, cmd string) (bool, error) {
	if cmd != "r" && cmd != "refresh" {
		return false, nil
	}
	h.load(ctx)
	return true, h.currentErr()
}

func (h *Home) currentErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// ChainSource pages through the chain.
type ChainSource interface {
	BlockchainLength(ctx context.Context) (int, error)
	BlockchainRange(ctx context.Context, start, end int) ([]chain.Block, error)
}

// PageSize is how many blocks the blockchain view shows at once.
const PageSize = 5

// Blockchain lists the chain tip first, one page at a time.
type Blockchain struct {
	src      ChainSource
	renderer render.Blocks
	txs      render.TransactionRenderer

	mu     sync.Mutex
	page   int
	length int
	blocks []chain.Block
	err    error
}

// NewBlockchain returns a blockchain page rendering blocks in format.
func NewBlockchain(src ChainSource, format render.Format) *Blockchain {
	return &Blockchain{
		src:      src,
		renderer: render.Blocks{Format: format},
		txs:      render.Transactions{Format: format},
	}
}

// Title names the page.
func (b *Blockchain) Title() string { return "Blockchain" }

// Mount loads the first page, the newest blocks.
func (b *Blockchain) Mount(ctx context.Context) error {
	b.load(ctx, 0)
	return nil
}

// Unmount drops the loaded page.
func (b *Blockchain) Unmount() {
	b.mu.Lock()
	b.page, b.length, b.blocks, b.err = 0, 0, nil, nil
	b.mu.Unlock()
}

func (b *Blockchain) load(ctx context.Context, page int) error {
	length, err := b.src.BlockchainLength(ctx)
	var blocks []chain.Block
	if err == nil {
		blocks, err = b.src.BlockchainRange(ctx, page*PageSize, (page+1)*PageSize)
	}
	if err != nil {
		log.Printf("[UI] Blockchain page %d failed: %v", page, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	if err == nil {
		b.page, b.length, b.blocks = page, length, blocks
	}
	return err
}

func (b *Blockchain) pages() int {
	if b.length == 0 {
		return 1
	}
	return (b.length + PageSize - 1) / PageSize
}

// Render draws the current page with each block's transactions.
func (b *Blockchain) Render(w io.Writer) error {
	b.mu.Lock()
	page, pages, length, err := b.page, b.pages(), b.length, b.err
	blocks := append([]chain.Block(nil), b.blocks...)
	b.mu.Unlock()

	render.Links(w, nav.Links())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	fmt.Fprintf(w, "%d block(s), page %d of %d, newest first\n", length, page+1, pages)
	for _, blk := range blocks {
		fmt.Fprintln(w, render.Separator)
		if err := b.renderer.RenderBlock(w, blk); err != nil {
			return err
		}
		for _, tx := range blk.Data {
			if err := b.txs.RenderTransaction(w, tx); err != nil {
				return err
			}
		}
	}
	fmt.Fprintln(w, render.Separator)
	_, werr := fmt.Fprintln(w, "[next] [prev] [page N]")
	return werr
}

// Handle moves between pages on "next", "prev" and "page N".
func (b *Blockchain) Handle(ctx context.Context, cmd string) (bool, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false, nil
	}
	b.mu.Lock()
	page, pages := b.page, b.pages()
	b.mu.Unlock()

	switch fields[0] {
	case "next", ">":
		if page+1 >= pages {
			return true, errors.New("already on the last page")
		}
		return true, b.load(ctx, page+1)
	case "prev", "<":
		if page == 0 {
			return true, errors.New("already on the first page")
		}
		return true, b.load(ctx, page-1)
	case "page":
		if len(fields) != 2 {
			return true, errors.New("usage: page N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > pages {
			return true, errors.Errorf("page must be between 1 and %d", pages)
		}
		return true, b.load(ctx, n-1)
	}
	return false, nil
}

// Transactor submits transfers from the backend wallet.
type Transactor interface {
	Transact(ctx context.Context, recipient string, amount float64) (chain.Transaction, error)
	KnownAddresses(ctx context.Context) ([]string, error)
}

// ConductTransaction sends coins from the backend wallet and moves to the pool.
type ConductTransaction struct {
	src       Transactor
	navigator nav.Navigator
	notifier  notify.Notifier

	mu        sync.Mutex
	addresses []string
	err       error
}

// NewConductTransaction returns the transfer page. Successful sends notify and move to the pool.
func NewConductTransaction(src Transactor, navigator nav.Navigator, notifier notify.Notifier) *ConductTransaction {
	return &ConductTransaction{src: src, navigator: navigator, notifier: notifier}
}

// Title names the page.
func (c *ConductTransaction) Title() string { return "Conduct a Transaction" }

// Mount fetches the known addresses to suggest as recipients.
func (c *ConductTransaction) Mount(ctx context.Context) error {
	addrs, err := c.src.KnownAddresses(ctx)
	if err != nil {
		log.Printf("[UI] Known addresses failed: %v", err)
	}
	sort.Strings(addrs)
	c.mu.Lock()
	c.addresses, c.err = addrs, err
	c.mu.Unlock()
	return nil
}

// Unmount drops the fetched addresses.
func (c *ConductTransaction) Unmount() {
	c.mu.Lock()
	c.addresses, c.err = nil, nil
	c.mu.Unlock()
}

// Render draws the links, known addresses and the send usage.
func (c *ConductTransaction) Render(w io.Writer) error {
	c.mu.Lock()
	addrs, err := append([]string(nil), c.addresses...), c.err
	c.mu.Unlock()

	render.Links(w, nav.Links())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	if len(addrs) > 0 {
		fmt.Fprintln(w, "Known addresses:")
		for _, a := range addrs {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	_, werr := fmt.Fprintln(w, "[send <recipient> <amount>]")
	return werr
}

// Handle submits "send <recipient> <amount>".
func (c *ConductTransaction) Handle(ctx context.Context, cmd string) (bool, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 || fields[0] != "send" {
		return false, nil
	}
	if len(fields) != 3 {
		return true, errors.New("usage: send <recipient> <amount>")
	}
	amount, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return true, errors.Errorf("amount %q is not a number", fields[2])
	}
	if err := validation.ValidateTransfer(fields[1], amount); err != nil {
		return true, err
	}
	tx, err := c.src.Transact(ctx, fields[1], amount)
	if err != nil {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.notifier.Notify(notify.Error(nav.RouteConductTransaction, fmt.Sprintf("Transaction failed: %v", err)))
		return true, err
	}
	log.Printf("[UI] Submitted transaction %s", tx.ID)
	c.notifier.Notify(notify.Info(nav.RouteConductTransaction, "Success!"))
	c.navigator.Push(nav.RouteTransactionPool)
	return true, nil
}
