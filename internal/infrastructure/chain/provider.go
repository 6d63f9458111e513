package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Provider is an EIP-1193 style JSON-RPC endpoint: the wallet the settlement
// adapter signs with, or a plain node for read-only calls.
// *rpc.Client satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Dial connects to a JSON-RPC endpoint over HTTP(S) or WebSocket.
func Dial(ctx context.Context, url string) (*rpc.Client, error) {
	if url == "" {
		return nil, errors.New("chain: rpc url is empty")
	}
	return rpc.DialContext(ctx, url)
}

// Breaker guards a Provider with a circuit breaker. JSON-RPC error responses
// (user rejection, revert, unknown chain) come from a healthy endpoint and do
// not count as failures; only transport errors do.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Provider) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRPCError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("chain circuit breaker state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.CallContext(ctx, result, method, args...)
	})
	return err
}

// State reports the breaker state for health output.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsRPCError reports whether err is a JSON-RPC error object returned by the endpoint.
func IsRPCError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// RPCErrorCode returns the JSON-RPC error code carried by err, if any.
func RPCErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}
