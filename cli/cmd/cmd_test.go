package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainview/api/server"
	"chainview/core/auth"
	"chainview/config"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{config.EnvAPIBaseURL, config.EnvJWTSecret, config.EnvAPIKey, config.EnvCacheDir, config.EnvLogFile} {
		t.Setenv(key, "")
	}
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func devnode(t *testing.T, opts server.Options) (*server.Server, string) {
	t.Helper()
	srv := server.NewServer(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func TestPoolCommand(t *testing.T) {
	srv, url := devnode(t, server.Options{})
	_, err := srv.Ledger().Transact("bob", 10)
	require.NoError(t, err)

	out, err := run(t, "", "pool", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "1 transactions in pool:")
	assert.Contains(t, out, "Sent: 10 -> bob")

	out, err = run(t, "", "pool", "--server", url, "-o", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"bob": 10`)

	_, err = run(t, "", "pool", "--server", url, "-o", "yaml")
	assert.EqualError(t, err, `unknown output format "yaml" (want plain|json|raw)`)
}

func TestMineAndBlockchainCommands(t *testing.T) {
	_, url := devnode(t, server.Options{})

	out, err := run(t, "", "mine", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Mining has begun!")
	assert.Contains(t, out, "holds 1 transaction(s)")

	out, err = run(t, "", "blockchain", "--server", url, "--length")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "", "blockchain", "--server", url, "--start", "0", "--end", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "Block "))

	_, err = run(t, "", "blockchain", "--server", url, "--length", "--end", "1")
	assert.Error(t, err)
}

func TestTransactWalletAndAddresses(t *testing.T) {
	srv, url := devnode(t, server.Options{})

	out, err := run(t, "", "transact", "--server", url, "--recipient", "bob", "--amount", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent: 5 -> bob")

	_, err = run(t, "", "transact", "--server", url, "--recipient", "bob")
	assert.Error(t, err)

	out, err = run(t, "", "wallet", "--server", url, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, srv.Ledger().Address())
	assert.Contains(t, out, `"balance": 1000`)

	_, err = run(t, "", "mine", "--server", url)
	require.NoError(t, err)
	out, err = run(t, "", "addresses", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "bob\n")
}

func TestHistoryCommand(t *testing.T) {
	_, url := devnode(t, server.Options{})
	dir := t.TempDir()

	_, err := run(t, "", "history", "--server", url)
	assert.Error(t, err)

	for i := 0; i < 2; i++ {
		_, err := run(t, "", "pool", "--server", url, "--cache-dir", dir)
		require.NoError(t, err)
	}
	out, err := run(t, "", "history", "--server", url, "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 snapshot(s):")
}

func TestAuthFlags(t *testing.T) {
	_, url := devnode(t, server.Options{JWTSecret: "s3cret", APIKey: "key"})

	_, err := run(t, "", "pool", "--server", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	_, err = run(t, "", "pool", "--server", url, "--jwt-secret", "s3cret", "--api-key", "key")
	assert.NoError(t, err)
}

func TestWatchCommand(t *testing.T) {
	srv, url := devnode(t, server.Options{})
	_, err := srv.Ledger().Transact("bob", 7)
	require.NoError(t, err)

	out, err := run(t, "r\nm\nq\n", "watch", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Transaction Pool (/transaction-pool) ===")
	assert.Contains(t, out, "Sent: 7 -> bob")
	assert.Contains(t, out, ">> Mining has begun!")
	assert.Contains(t, out, "=== Blockchain (/blockchain) ===")
}

func TestTokenCommand(t *testing.T) {
	_, err := run(t, "", "token")
	assert.Error(t, err)

	out, err := run(t, "", "token", "--jwt-secret", "s3cret", "--subject", "ops")
	require.NoError(t, err)
	claims, err := auth.Verify("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}
