package ui

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chainview/core/nav"
	"chainview/core/notify"
	"chainview/core/render"
	"chainview/types/chain"
)

type fakeWallet struct {
	info chain.WalletInfo
	err  error
}

func (f *fakeWallet) WalletInfo(ctx context.Context) (chain.WalletInfo, error) {
	return f.info, f.err
}

func TestHomeRendersWallet(t *testing.T) {
	src := &fakeWallet{info: chain.WalletInfo{Address: "abc123", Balance: 1050}}
	home := NewHome(src)
	require.NoError(t, home.Mount(context.Background()))

	var out bytes.Buffer
	require.NoError(t, home.Render(&out))
	assert.Contains(t, out.String(), "[Home]  [Blockchain]  [Conduct a Transaction]")
	assert.Contains(t, out.String(), "Address: abc123")
	assert.Contains(t, out.String(), "Balance: 1050")

	src.err = errors.New("backend down")
	handled, err := home.Handle(context.Background(), "r")
	assert.True(t, handled)
	assert.EqualError(t, err, "backend down")
	out.Reset()
	require.NoError(t, home.Render(&out))
	assert.Contains(t, out.String(), "Error: backend down")
}

type fakeChain struct {
	blocks []chain.Block // tip first
	calls  [][2]int
}

func (f *fakeChain) BlockchainLength(ctx context.Context) (int, error) {
	return len(f.blocks), nil
}

func (f *fakeChain) BlockchainRange(ctx context.Context, start, end int) ([]chain.Block, error) {
	f.calls = append(f.calls, [2]int{start, end})
	if end > len(f.blocks) {
		end = len(f.blocks)
	}
	if start > end {
		start = end
	}
	return f.blocks[start:end], nil
}

func newFakeChain(n int) *fakeChain {
	f := &fakeChain{}
	for i := n - 1; i >= 0; i-- {
		f.blocks = append(f.blocks, chain.Block{Hash: fmt.Sprintf("block-%d", i)})
	}
	return f
}

func TestBlockchainPaging(t *testing.T) {
	ctx := context.Background()
	src := newFakeChain(12)
	view := NewBlockchain(src, render.FormatPlain)
	require.NoError(t, view.Mount(ctx))

	var out bytes.Buffer
	require.NoError(t, view.Render(&out))
	assert.Contains(t, out.String(), "12 block(s), page 1 of 3")
	assert.Contains(t, out.String(), "block-11")
	assert.NotContains(t, out.String(), "block-6")

	handled, err := view.Handle(ctx, "next")
	assert.True(t, handled)
	require.NoError(t, err)
	handled, err = view.Handle(ctx, "page 3")
	assert.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 5}, {5, 10}, {10, 15}}, src.calls)

	_, err = view.Handle(ctx, "next")
	assert.EqualError(t, err, "already on the last page")
	_, err = view.Handle(ctx, "page 9")
	assert.Error(t, err)

	out.Reset()
	require.NoError(t, view.Render(&out))
	assert.Contains(t, out.String(), "page 3 of 3")
	assert.Contains(t, out.String(), "block-0")

	handled, _ = view.Handle(ctx, "mine")
	assert.False(t, handled)

	view.Unmount()
	require.NoError(t, view.Mount(ctx))
	_, err = view.Handle(ctx, "prev")
	assert.EqualError(t, err, "already on the first page")
}

type fakeTransactor struct {
	mock.Mock
}

func (f *fakeTransactor) Transact(ctx context.Context, recipient string, amount float64) (chain.Transaction, error) {
	args := f.Called(recipient, amount)
	return args.Get(0).(chain.Transaction), args.Error(1)
}

func (f *fakeTransactor) KnownAddresses(ctx context.Context) ([]string, error) {
	args := f.Called()
	return args.Get(0).([]string), args.Error(1)
}

type mockNavigator struct{ mock.Mock }

func (m *mockNavigator) Push(route string) { m.Called(route) }

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(n notify.Notification) { m.Called(n) }

func TestConductTransactionSend(t *testing.T) {
	ctx := context.Background()
	src := &fakeTransactor{}
	src.On("KnownAddresses").Return([]string{"zed", "amy"}, nil)
	src.On("Transact", "amy", 12.5).Return(chain.Transaction{ID: "t1"}, nil)
	navigator := &mockNavigator{}
	navigator.On("Push", nav.RouteTransactionPool).Return()
	notifier := &mockNotifier{}
	notifier.On("Notify", notify.Info(nav.RouteConductTransaction, "Success!")).Return()

	view := NewConductTransaction(src, navigator, notifier)
	require.NoError(t, view.Mount(ctx))
	var out bytes.Buffer
	require.NoError(t, view.Render(&out))
	assert.Regexp(t, `(?s)amy.*zed`, out.String())

	handled, err := view.Handle(ctx, "send amy 12.5")
	assert.True(t, handled)
	require.NoError(t, err)

	navigator.AssertNumberOfCalls(t, "Push", 1)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
	src.AssertExpectations(t)
}

func TestConductTransactionRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	src := &fakeTransactor{}
	navigator := &mockNavigator{}
	notifier := &mockNotifier{}
	view := NewConductTransaction(src, navigator, notifier)

	for _, cmd := range []string{"send amy", "send amy lots", "send amy -3"} {
		handled, err := view.Handle(ctx, cmd)
		assert.True(t, handled, cmd)
		assert.Error(t, err, cmd)
	}
	handled, _ := view.Handle(ctx, "m")
	assert.False(t, handled)
	src.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything)
	navigator.AssertNotCalled(t, "Push", mock.Anything)
}

func TestConductTransactionFailureNotifies(t *testing.T) {
	ctx := context.Background()
	src := &fakeTransactor{}
	src.On("Transact", "amy", 5000.0).Return(chain.Transaction{}, errors.New("amount exceeds balance"))
	navigator := &mockNavigator{}
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.MatchedBy(func(n notify.Notification) bool {
		return n.Level == notify.LevelError
	})).Return()

	view := NewConductTransaction(src, navigator, notifier)
	_, err := view.Handle(ctx, "send amy 5000")
	assert.EqualError(t, err, "amount exceeds balance")
	notifier.AssertNumberOfCalls(t, "Notify", 1)
	navigator.AssertNotCalled(t, "Push", mock.Anything)

	var out bytes.Buffer
	require.NoError(t, view.Render(&out))
	assert.Contains(t, out.String(), "Error: amount exceeds balance")
}
