package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

type rpcErr struct{ code int }

func (e rpcErr) Error() string  { return "rpc error" }
func (e rpcErr) ErrorCode() int { return e.code }

type flakyProvider struct {
	err   error
	calls int
}

func (p *flakyProvider) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	p.calls++
	return p.err
}

func TestBreaker_RPCErrorsDoNotTrip(t *testing.T) {
	p := &flakyProvider{err: rpcErr{code: 4001}}
	b := NewBreaker("wallet", p)
	for i := 0; i < 10; i++ {
		err := b.CallContext(context.Background(), nil, "eth_sendTransaction")
		code, ok := RPCErrorCode(err)
		assert.True(t, ok)
		assert.Equal(t, 4001, code)
	}
	assert.Equal(t, 10, p.calls)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_TransportErrorsTrip(t *testing.T) {
	p := &flakyProvider{err: errors.New("dial tcp: connection refused")}
	b := NewBreaker("wallet", p)
	for i := 0; i < 6; i++ {
		_ = b.CallContext(context.Background(), nil, "eth_chainId")
	}
	err := b.CallContext(context.Background(), nil, "eth_chainId")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 6, p.calls)
	assert.Equal(t, "open", b.State())
}

func TestDial_EmptyURL(t *testing.T) {
	_, err := Dial(context.Background(), "")
	assert.Error(t, err)
}
