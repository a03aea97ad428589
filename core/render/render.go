// Package render turns chain records into terminal text.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"chainview/core/nav"
	"chainview/types/chain"
)

// Format selects how records are printed.
type Format string

const (
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatRaw   Format = "raw"
)

// ParseFormat accepts plain, json or raw.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPlain, FormatJSON, FormatRaw:
		return Format(s), nil
	}
	return "", errors.Errorf("unknown output format %q (want plain|json|raw)", s)
}

// TransactionRenderer renders a single transaction.
type TransactionRenderer interface {
	RenderTransaction(w io.Writer, tx chain.Transaction) error
}

// Transactions renders transactions in the given format.
type Transactions struct {
	Format Format
}

var spewConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

// RenderTransaction writes one transaction.
func (r Transactions) RenderTransaction(w io.Writer, tx chain.Transaction) error {
	switch r.Format {
	case FormatJSON:
		return writeJSON(w, tx)
	case FormatRaw:
		_, err := io.WriteString(w, spewConfig.Sdump(tx))
		return err
	}

	fmt.Fprintf(w, "Transaction %s\n", tx.ID)
	if tx.IsReward() {
		fmt.Fprintf(w, "  From: mining reward\n")
	} else if tx.Sender() != "" {
		fmt.Fprintf(w, "  From: %s (balance %s)\n", tx.Sender(), amount(tx.Input.Amount))
	}
	if tx.Input.Timestamp != 0 {
		fmt.Fprintf(w, "  Time: %s\n", time.Unix(0, tx.Input.Timestamp).UTC().Format(time.RFC3339))
	}
	recipients := make([]string, 0, len(tx.Output))
	for addr := range tx.Output {
		recipients = append(recipients, addr)
	}
	sort.Strings(recipients)
	for _, addr := range recipients {
		if _, err := fmt.Fprintf(w, "  Sent: %s -> %s\n", amount(tx.Output[addr]), addr); err != nil {
			return err
		}
	}
	return nil
}

// List renders a whole slice. JSON output is a single array.
func (r Transactions) List(w io.Writer, txs []chain.Transaction) error {
	if r.Format == FormatJSON {
		if txs == nil {
			txs = []chain.Transaction{}
		}
		return writeJSON(w, txs)
	}
	fmt.Fprintf(w, "%d transactions in pool:\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintln(w, Separator)
		if err := r.RenderTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// Separator is printed between records.
const Separator = "----------------------------------------"

// Blocks renders blocks of the chain.
type Blocks struct {
	Format Format
}

// RenderBlock writes one block header.
func (r Blocks) RenderBlock(w io.Writer, b chain.Block) error {
	switch r.Format {
	case FormatJSON:
		return writeJSON(w, b)
	case FormatRaw:
		_, err := io.WriteString(w, spewConfig.Sdump(b))
		return err
	}
	fmt.Fprintf(w, "Block %s\n", short(b.Hash))
	fmt.Fprintf(w, "  Prev: %s\n", short(b.PrevHash))
	fmt.Fprintf(w, "  Time: %s\n", time.Unix(0, b.Timestamp).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Difficulty: %d  Nonce: %d\n", b.Difficulty, b.Nonce)
	_, err := fmt.Fprintf(w, "  Transactions: %d\n", len(b.Data))
	return err
}

// List renders a slice of blocks, newest last as the backend returns them.
func (r Blocks) List(w io.Writer, blocks []chain.Block) error {
	if r.Format == FormatJSON {
		if blocks == nil {
			blocks = []chain.Block{}
		}
		return writeJSON(w, blocks)
	}
	for _, b := range blocks {
		fmt.Fprintln(w, Separator)
		if err := r.RenderBlock(w, b); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return errors.Wrap(err, "indenting output")
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

func amount(v float64) string {
	return fmt.Sprintf("%g", v)
}

func short(hash string) string {
	if len(hash) > 15 {
		return hash[:15] + "..."
	}
	return hash
}

// Links renders a navigation bar.
func Links(w io.Writer, links []nav.Link) {
	for i, l := range links {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "[%s]", l.Label)
	}
	fmt.Fprintln(w)
}
