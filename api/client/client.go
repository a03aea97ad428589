package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"chainview/core/auth"
	"chainview/core/validation"
	"chainview/types/chain"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 16 << 20

// Options configure a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	APIKey     string
	Tokens     *auth.TokenSource
	HTTPClient *http.Client
}

// Client talks to the blockchain backend's REST API.
type Client struct {
	baseURL string
	apiKey  string
	tokens  *auth.TokenSource
	http    *http.Client
}

// New returns a Client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid API base URL %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: base, apiKey: opts.APIKey, tokens: opts.Tokens, http: hc}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Transactions fetches the pending transaction pool.
func (c *Client) Transactions(ctx context.Context) ([]chain.Transaction, error) {
	body, err := c.get(ctx, "/transactions")
	if err != nil {
		return nil, err
	}
	if err := validation.ValidatePool(body); err != nil {
		return nil, errors.Wrapf(ErrDecodeFailed, "%s", err)
	}
	var txs []chain.Transaction
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, errors.Wrapf(ErrDecodeFailed, "transaction pool: %s", err)
	}
	if txs == nil {
		txs = []chain.Transaction{}
	}
	return txs, nil
}

// MineBlock asks the backend to mine the pool into a block. Any 2xx is success; the
// returned block is best-effort and may be zero when the body is not a block.
func (c *Client) MineBlock(ctx context.Context) (chain.Block, error) {
	var blk chain.Block
	body, err := c.get(ctx, "/blockchain/mine")
	if err != nil {
		return blk, errors.Wrapf(ErrMineTriggerFailed, "%s", err)
	}
	if err := json.Unmarshal(body, &blk); err != nil {
		log.Printf("[CLIENT] Mine response is not a block (%v); ignoring body", err)
		return chain.Block{}, nil
	}
	return blk, nil
}

// Blockchain fetches the whole chain, genesis first.
func (c *Client) Blockchain(ctx context.Context) ([]chain.Block, error) {
	return c.getChain(ctx, "/blockchain")
}

// BlockchainRange fetches blocks [start, end) counted from the tip backwards.
func (c *Client) BlockchainRange(ctx context.Context, start, end int) ([]chain.Block, error) {
	if start < 0 || end < start {
		return nil, errors.Errorf("invalid range [%d, %d)", start, end)
	}
	return c.getChain(ctx, fmt.Sprintf("/blockchain/range?start=%d&end=%d", start, end))
}

// BlockchainLength returns the number of blocks in the chain.
func (c *Client) BlockchainLength(ctx context.Context) (int, error) {
	var n int
	err := c.getJSON(ctx, "/blockchain/length", &n)
	return n, err
}

// Transact asks the backend wallet to send amount to recipient.
func (c *Client) Transact(ctx context.Context, recipient string, amount float64) (chain.Transaction, error) {
	var tx chain.Transaction
	if err := validation.ValidateTransfer(recipient, amount); err != nil {
		return tx, err
	}
	payload, _ := json.Marshal(map[string]interface{}{"recipient": recipient, "amount": amount})
	body, err := c.do(ctx, http.MethodPost, "/wallet/transact", payload)
	if err != nil {
		return tx, err
	}
	if err := json.Unmarshal(body, &tx); err != nil {
		return tx, errors.Wrapf(ErrDecodeFailed, "transaction: %s", err)
	}
	return tx, nil
}

// WalletInfo fetches the backend wallet's address and balance.
func (c *Client) WalletInfo(ctx context.Context) (chain.WalletInfo, error) {
	var info chain.WalletInfo
	err := c.getJSON(ctx, "/wallet/info", &info)
	return info, err
}

// KnownAddresses lists every address that appears in a block output.
func (c *Client) KnownAddresses(ctx context.Context) ([]string, error) {
	var addrs []string
	err := c.getJSON(ctx, "/known-addresses", &addrs)
	return addrs, err
}

func (c *Client) getChain(ctx context.Context, path string) ([]chain.Block, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateChain(body); err != nil {
		return nil, errors.Wrapf(ErrDecodeFailed, "%s", err)
	}
	var blocks []chain.Block
	if err := json.Unmarshal(body, &blocks); err != nil {
		return nil, errors.Wrapf(ErrDecodeFailed, "blockchain: %s", err)
	}
	return blocks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(ErrDecodeFailed, "%s: %s", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	target := c.baseURL + path
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "building %s %s: %s", method, target, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, errors.Wrapf(ErrFetchFailed, "%s", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "%s %s: %s", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailed, "reading %s %s: %s", method, target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrFetchFailed, "%s %s: status %d: %s", method, target, resp.StatusCode, snippet(body))
	}
	log.Printf("[CLIENT] %s %s -> %d (%d bytes, request %s)", method, path, resp.StatusCode, len(body), requestID)
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
