package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/chain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChainID  = 11155111
	contractAddr = "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD"
	investorAddr = "0x1111111111111111111111111111111111111111"
	creatorAddr  = "0x2222222222222222222222222222222222222222"
)

type rpcErr struct {
	code int
	msg  string
	data interface{}
}

func (e *rpcErr) Error() string          { return e.msg }
func (e *rpcErr) ErrorCode() int         { return e.code }
func (e *rpcErr) ErrorData() interface{} { return e.data }

type handler func(args []interface{}) (interface{}, error)

// fakeWallet answers JSON-RPC calls the way an injected wallet would.
type fakeWallet struct {
	mu       sync.Mutex
	chainID  int64
	calls    []string
	sent     []map[string]interface{}
	handlers map[string]handler
}

func (w *fakeWallet) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	w.mu.Lock()
	w.calls = append(w.calls, method)
	h := w.handlers[method]
	w.mu.Unlock()
	if h == nil {
		return fmt.Errorf("method %s not supported", method)
	}
	res, err := h(args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}

func (w *fakeWallet) called(method string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.calls {
		if c == method {
			return true
		}
	}
	return false
}

func testABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	require.NoError(t, err)
	return parsed
}

// newFakeWallet serves a healthy contract on the expected chain. Every mined
// transaction carries the given logs.
func newFakeWallet(t *testing.T, logs []rpcLog) *fakeWallet {
	parsed := testABI(t)
	w := &fakeWallet{chainID: testChainID}
	w.handlers = map[string]handler{
		"eth_requestAccounts": func([]interface{}) (interface{}, error) {
			return []string{investorAddr}, nil
		},
		"eth_chainId": func([]interface{}) (interface{}, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			return hexutil.EncodeBig(big.NewInt(w.chainID)), nil
		},
		"wallet_switchEthereumChain": func([]interface{}) (interface{}, error) {
			w.mu.Lock()
			w.chainID = testChainID
			w.mu.Unlock()
			return nil, nil
		},
		"eth_getCode": func([]interface{}) (interface{}, error) {
			return "0x6080", nil
		},
		"eth_call": func(args []interface{}) (interface{}, error) {
			msg := args[0].(map[string]interface{})
			data := msg["data"].(hexutil.Bytes)
			m, err := parsed.MethodById(data[:4])
			if err != nil {
				return nil, err
			}
			var out []byte
			switch m.Name {
			case "investmentCounter":
				out, err = m.Outputs.Pack(big.NewInt(7))
			case "investments":
				out, err = m.Outputs.Pack(
					common.HexToAddress(investorAddr), common.HexToAddress(creatorAddr),
					ToBaseUnits(decimal.RequireFromString("1.5")),
					true, true, true, false, true, "", "abc123",
				)
			}
			if err != nil {
				return nil, err
			}
			return hexutil.Bytes(out), nil
		},
		"eth_sendTransaction": func(args []interface{}) (interface{}, error) {
			w.mu.Lock()
			w.sent = append(w.sent, args[0].(map[string]interface{}))
			n := len(w.sent)
			w.mu.Unlock()
			return common.BigToHash(big.NewInt(int64(n))), nil
		},
		"eth_getTransactionReceipt": func(args []interface{}) (interface{}, error) {
			return rpcReceipt{
				TxHash:      args[0].(common.Hash),
				BlockNumber: (*hexutil.Big)(big.NewInt(16)),
				Status:      1,
				Logs:        logs,
			}, nil
		},
	}
	return w
}

func newTestAdapter(t *testing.T, w *fakeWallet) *Adapter {
	t.Helper()
	var p chain.Provider
	if w != nil {
		p = w
	}
	a, err := New(p, Config{
		ChainID:         testChainID,
		ChainName:       "OpenCampus CodeX Sepolia",
		RPCURL:          "https://rpc.example",
		ExplorerURL:     "https://explorer.example",
		ContractAddress: contractAddr,
		PollInterval:    time.Millisecond,
		ReceiptTimeout:  time.Second,
	}, nil)
	require.NoError(t, err)
	return a
}

func investedLog(t *testing.T, id int64, amount *big.Int) rpcLog {
	t.Helper()
	ev := testABI(t).Events["Invested"]
	data, err := ev.Inputs.Pack(big.NewInt(id), common.HexToAddress(investorAddr), common.HexToAddress(creatorAddr), amount)
	require.NoError(t, err)
	return rpcLog{Address: common.HexToAddress(contractAddr), Topics: []common.Hash{ev.ID}, Data: data}
}

func revertData(t *testing.T, reason string) string {
	t.Helper()
	typ, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: typ}}.Pack(reason)
	require.NoError(t, err)
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

func TestNew_RejectsBadContractAddress(t *testing.T) {
	_, err := New(nil, Config{ContractAddress: "nope"}, nil)
	assert.Error(t, err)
}

func TestConnect_AddsUnknownChain(t *testing.T) {
	w := newFakeWallet(t, nil)
	w.chainID = 1
	w.handlers["wallet_switchEthereumChain"] = func([]interface{}) (interface{}, error) {
		return nil, &rpcErr{code: 4902, msg: "Unrecognized chain ID"}
	}
	var added map[string]interface{}
	w.handlers["wallet_addEthereumChain"] = func(args []interface{}) (interface{}, error) {
		added = args[0].(map[string]interface{})
		w.mu.Lock()
		w.chainID = testChainID
		w.mu.Unlock()
		return nil, nil
	}
	a := newTestAdapter(t, w)

	require.True(t, a.Connect(context.Background()))
	assert.Equal(t, "0xaa36a7", added["chainId"])
	assert.Equal(t, []string{"https://rpc.example"}, added["rpcUrls"])

	st := a.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, common.HexToAddress(investorAddr).Hex(), st.Account)
	assert.Equal(t, int64(testChainID), st.ChainID)
}

func TestConnect_SwitchesChain(t *testing.T) {
	w := newFakeWallet(t, nil)
	w.chainID = 5
	a := newTestAdapter(t, w)

	require.True(t, a.Connect(context.Background()))
	assert.True(t, w.called("wallet_switchEthereumChain"))
	assert.False(t, w.called("wallet_addEthereumChain"))
}

func TestConnect_Failures(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		a := newTestAdapter(t, nil)
		assert.False(t, a.Connect(context.Background()))
		assert.False(t, a.Connected())
	})
	t.Run("switch refused", func(t *testing.T) {
		w := newFakeWallet(t, nil)
		w.chainID = 1
		w.handlers["wallet_switchEthereumChain"] = func([]interface{}) (interface{}, error) {
			return nil, &rpcErr{code: 4001, msg: "User rejected the request"}
		}
		assert.False(t, newTestAdapter(t, w).Connect(context.Background()))
	})
	t.Run("no contract code", func(t *testing.T) {
		w := newFakeWallet(t, nil)
		w.handlers["eth_getCode"] = func([]interface{}) (interface{}, error) { return "0x", nil }
		assert.False(t, newTestAdapter(t, w).Connect(context.Background()))
	})
	t.Run("abi mismatch", func(t *testing.T) {
		w := newFakeWallet(t, nil)
		w.handlers["eth_call"] = func([]interface{}) (interface{}, error) { return "0x", nil }
		assert.False(t, newTestAdapter(t, w).Connect(context.Background()))
	})
}

func TestInvest_ReturnsContractInvestmentID(t *testing.T) {
	amount := decimal.RequireFromString("1.5")
	w := newFakeWallet(t, []rpcLog{investedLog(t, 42, ToBaseUnits(amount))})
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	id, rcpt, err := a.Invest(context.Background(), creatorAddr, amount)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())
	assert.Equal(t, uint64(16), rcpt.BlockNumber)
	assert.NotEmpty(t, rcpt.TxHash)

	require.Len(t, w.sent, 1)
	value := w.sent[0]["value"].(*hexutil.Big)
	assert.Equal(t, "1500000000000000000", value.ToInt().String())
	assert.Equal(t, common.HexToAddress(investorAddr), w.sent[0]["from"])
}

func TestInvest_MissingEvent(t *testing.T) {
	w := newFakeWallet(t, nil)
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	_, rcpt, err := a.Invest(context.Background(), creatorAddr, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransaction)
	require.NotNil(t, rcpt)

	var txErr *domain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, rcpt.TxHash, txErr.TxHash)
}

func TestInvest_ValidatesInput(t *testing.T) {
	a := newTestAdapter(t, newFakeWallet(t, nil))
	require.True(t, a.Connect(context.Background()))

	_, _, err := a.Invest(context.Background(), "not-an-address", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = a.Invest(context.Background(), creatorAddr, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransact_RequiresConnection(t *testing.T) {
	a := newTestAdapter(t, newFakeWallet(t, nil))
	_, err := a.ConfirmDeal(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)
}

func TestTransact_NetworkMismatch(t *testing.T) {
	w := newFakeWallet(t, nil)
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	w.mu.Lock()
	w.chainID = 1
	w.mu.Unlock()
	_, err := a.ScheduleCall(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrNetworkMismatch)
	assert.Empty(t, w.sent)
}

func TestTransact_DecodesRevertReason(t *testing.T) {
	w := newFakeWallet(t, nil)
	w.handlers["eth_sendTransaction"] = func([]interface{}) (interface{}, error) {
		return nil, &rpcErr{code: 3, msg: "execution reverted", data: revertData(t, "Deal not confirmed")}
	}
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	_, err := a.ReleaseFunds(context.Background(), big.NewInt(3))
	var txErr *domain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, domain.TxMethodReleaseFunds, txErr.Op)
	assert.Equal(t, "Deal not confirmed", txErr.Reason)
}

func TestTransact_UserRejected(t *testing.T) {
	w := newFakeWallet(t, nil)
	w.handlers["eth_sendTransaction"] = func([]interface{}) (interface{}, error) {
		return nil, &rpcErr{code: 4001, msg: "User denied transaction signature"}
	}
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	_, err := a.UploadMOU(context.Background(), big.NewInt(3), "deadbeef")
	var txErr *domain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "rejected in wallet", txErr.Reason)
}

func TestTransact_RevertedReceipt(t *testing.T) {
	w := newFakeWallet(t, nil)
	w.handlers["eth_getTransactionReceipt"] = func(args []interface{}) (interface{}, error) {
		return rpcReceipt{TxHash: args[0].(common.Hash), BlockNumber: (*hexutil.Big)(big.NewInt(9)), Status: 0}, nil
	}
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	rcpt, err := a.ConfirmDeal(context.Background(), big.NewInt(3))
	assert.ErrorIs(t, err, domain.ErrTransaction)
	require.NotNil(t, rcpt)
	assert.Equal(t, uint64(9), rcpt.BlockNumber)
}

func TestTransact_WaitsForReceipt(t *testing.T) {
	w := newFakeWallet(t, nil)
	polls := 0
	w.handlers["eth_getTransactionReceipt"] = func(args []interface{}) (interface{}, error) {
		polls++
		if polls < 3 {
			return nil, nil
		}
		return rpcReceipt{TxHash: args[0].(common.Hash), BlockNumber: (*hexutil.Big)(big.NewInt(20)), Status: 1}, nil
	}
	a := newTestAdapter(t, w)
	require.True(t, a.Connect(context.Background()))

	rcpt, err := a.ScheduleCall(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
	assert.Equal(t, uint64(20), rcpt.BlockNumber)
}

func TestUploadMOU_RequiresHash(t *testing.T) {
	a := newTestAdapter(t, newFakeWallet(t, nil))
	require.True(t, a.Connect(context.Background()))
	_, err := a.UploadMOU(context.Background(), big.NewInt(1), " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetInvestment(t *testing.T) {
	a := newTestAdapter(t, newFakeWallet(t, nil))

	inv, err := a.GetInvestment(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(creatorAddr).Hex(), inv.Creator)
	assert.True(t, inv.Amount.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, inv.TokensLocked)
	assert.True(t, inv.DealConfirmed)
	assert.False(t, inv.MOUUploadedByInvestor)
	assert.Equal(t, "abc123", inv.CreatorMOUHash)

	n, err := a.InvestmentCounter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n.Int64())
}

func TestViews_WithoutProvider(t *testing.T) {
	a := newTestAdapter(t, nil)
	_, err := a.GetInvestment(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)
}
