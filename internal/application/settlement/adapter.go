package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/infrastructure/chain"
	"ideanest-backend/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	codeUnrecognizedChain = 4902
	codeUserRejected      = 4001

	defaultReceiptTimeout = 5 * time.Minute
)

// Config pins the network and contract the adapter settles against.
type Config struct {
	ChainID         int64
	ChainName       string
	RPCURL          string
	ExplorerURL     string
	ContractAddress string
	PollInterval    time.Duration
	ReceiptTimeout  time.Duration
}

// Receipt identifies a mined transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// Investment is the contract's view of one escrowed investment.
type Investment struct {
	Investor              string          `json:"investor"`
	Creator               string          `json:"creator"`
	Amount                decimal.Decimal `json:"amount"`
	TokensLocked          bool            `json:"tokens_locked"`
	CallScheduled         bool            `json:"call_scheduled"`
	DealConfirmed         bool            `json:"deal_confirmed"`
	MOUUploadedByInvestor bool            `json:"mou_uploaded_by_investor"`
	MOUUploadedByCreator  bool            `json:"mou_uploaded_by_creator"`
	InvestorMOUHash       string          `json:"investor_mou_hash"`
	CreatorMOUHash        string          `json:"creator_mou_hash"`
}

// Status is the adapter's connection state.
type Status struct {
	Connected       bool   `json:"connected"`
	Account         string `json:"account"`
	ChainID         int64  `json:"chain_id"`
	ExpectedChainID int64  `json:"expected_chain_id"`
	ChainName       string `json:"chain_name"`
	ContractAddress string `json:"contract_address"`
	ExplorerURL     string `json:"explorer_url"`
}

// Adapter drives the escrow contract through a wallet provider. Transactions are
// sent with eth_sendTransaction from the connected account and awaited until mined.
type Adapter struct {
	provider chain.Provider
	cfg      Config
	abi      abi.ABI
	contract common.Address
	metrics  *metrics.Registry

	mu        sync.RWMutex
	connected bool
	account   common.Address
	chainID   int64
}

// New builds an adapter. A nil provider yields an adapter that never connects.
func New(provider chain.Provider, cfg Config, m *metrics.Registry) (*Adapter, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("settlement: parse abi: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("settlement: invalid contract address %q", cfg.ContractAddress)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = defaultReceiptTimeout
	}
	return &Adapter{
		provider: provider,
		cfg:      cfg,
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
		metrics:  m,
	}, nil
}

// Connect acquires the wallet account, moves the wallet to the required chain
// and verifies the contract. Any failure is logged and reported as false.
func (a *Adapter) Connect(ctx context.Context) bool {
	if a.provider == nil {
		log.Warn().Msg("wallet connect: no wallet provider configured")
		a.setDisconnected()
		return false
	}
	account, chainID, err := a.connect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("wallet connect failed")
		a.setDisconnected()
		return false
	}
	a.mu.Lock()
	a.connected, a.account, a.chainID = true, account, chainID
	a.mu.Unlock()
	log.Info().Str("account", account.Hex()).Int64("chain_id", chainID).Msg("wallet connected")
	return true
}

func (a *Adapter) connect(ctx context.Context) (common.Address, int64, error) {
	var accounts []common.Address
	if err := a.provider.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return common.Address{}, 0, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, 0, errors.New("request accounts: wallet exposed no account")
	}

	chainID, err := a.currentChainID(ctx)
	if err != nil {
		return common.Address{}, 0, err
	}
	if chainID != a.cfg.ChainID {
		if err := a.switchChain(ctx); err != nil {
			return common.Address{}, 0, err
		}
		if chainID, err = a.currentChainID(ctx); err != nil {
			return common.Address{}, 0, err
		}
		if chainID != a.cfg.ChainID {
			return common.Address{}, 0, fmt.Errorf("wallet is on chain %d, want %d", chainID, a.cfg.ChainID)
		}
	}

	var code hexutil.Bytes
	if err := a.provider.CallContext(ctx, &code, "eth_getCode", a.contract, "latest"); err != nil {
		return common.Address{}, 0, fmt.Errorf("get code: %w", err)
	}
	if len(code) == 0 {
		return common.Address{}, 0, fmt.Errorf("contract not found at %s on chain %d", a.contract.Hex(), chainID)
	}
	if _, err := a.investmentCounter(ctx); err != nil {
		return common.Address{}, 0, fmt.Errorf("contract abi verification: %w", err)
	}
	return accounts[0], chainID, nil
}

func (a *Adapter) switchChain(ctx context.Context) error {
	want := hexutil.EncodeBig(big.NewInt(a.cfg.ChainID))
	err := a.provider.CallContext(ctx, nil, "wallet_switchEthereumChain", map[string]string{"chainId": want})
	if err == nil {
		return nil
	}
	if code, ok := chain.RPCErrorCode(err); !ok || code != codeUnrecognizedChain {
		return fmt.Errorf("switch chain: %w", err)
	}
	params := map[string]interface{}{
		"chainId":           want,
		"chainName":         a.cfg.ChainName,
		"rpcUrls":           []string{a.cfg.RPCURL},
		"blockExplorerUrls": []string{a.cfg.ExplorerURL},
		"nativeCurrency": map[string]interface{}{
			"name":     "EDU",
			"symbol":   "EDU",
			"decimals": Decimals,
		},
	}
	if err := a.provider.CallContext(ctx, nil, "wallet_addEthereumChain", params); err != nil {
		return fmt.Errorf("add chain: %w", err)
	}
	return nil
}

func (a *Adapter) currentChainID(ctx context.Context) (int64, error) {
	var id hexutil.Big
	if err := a.provider.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}
	return id.ToInt().Int64(), nil
}

func (a *Adapter) setDisconnected() {
	a.mu.Lock()
	a.connected, a.account, a.chainID = false, common.Address{}, 0
	a.mu.Unlock()
}

// Connected reports whether the last Connect succeeded.
func (a *Adapter) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

func (a *Adapter) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := Status{
		Connected:       a.connected,
		ChainID:         a.chainID,
		ExpectedChainID: a.cfg.ChainID,
		ChainName:       a.cfg.ChainName,
		ContractAddress: a.contract.Hex(),
		ExplorerURL:     a.cfg.ExplorerURL,
	}
	if a.connected {
		st.Account = a.account.Hex()
	}
	return st
}

// Invest escrows amount for creator and returns the contract-assigned investment id.
func (a *Adapter) Invest(ctx context.Context, creator string, amount decimal.Decimal) (*big.Int, *Receipt, error) {
	if !common.IsHexAddress(creator) {
		return nil, nil, domain.Validationf("Creator wallet address %q is invalid", creator)
	}
	if !amount.IsPositive() {
		return nil, nil, domain.Validationf("Amount must be greater than zero")
	}
	rcpt, logs, err := a.transact(ctx, domain.TxMethodInvest, ToBaseUnits(amount), "invest", common.HexToAddress(creator))
	if err != nil {
		return nil, nil, err
	}
	ev := a.abi.Events["Invested"]
	for _, lg := range logs {
		if len(lg.Topics) == 0 || lg.Topics[0] != ev.ID || lg.Address != a.contract {
			continue
		}
		vals, err := a.abi.Unpack("Invested", lg.Data)
		if err != nil || len(vals) == 0 {
			return nil, rcpt, &domain.TransactionError{Op: domain.TxMethodInvest, TxHash: rcpt.TxHash, Reason: "malformed Invested event", Err: err}
		}
		id, ok := vals[0].(*big.Int)
		if !ok {
			return nil, rcpt, &domain.TransactionError{Op: domain.TxMethodInvest, TxHash: rcpt.TxHash, Reason: "malformed Invested event"}
		}
		return id, rcpt, nil
	}
	return nil, rcpt, &domain.TransactionError{Op: domain.TxMethodInvest, TxHash: rcpt.TxHash, Reason: "Invested event not found in transaction receipt"}
}

func (a *Adapter) ScheduleCall(ctx context.Context, id *big.Int) (*Receipt, error) {
	rcpt, _, err := a.transact(ctx, domain.TxMethodScheduleCall, nil, "scheduleCall", id)
	return rcpt, err
}

func (a *Adapter) ConfirmDeal(ctx context.Context, id *big.Int) (*Receipt, error) {
	rcpt, _, err := a.transact(ctx, domain.TxMethodConfirmDeal, nil, "confirmDeal", id)
	return rcpt, err
}

func (a *Adapter) UploadMOU(ctx context.Context, id *big.Int, hash string) (*Receipt, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, domain.Validationf("Document hash is required")
	}
	rcpt, _, err := a.transact(ctx, domain.TxMethodUploadMOU, nil, "uploadMOU", id, hash)
	return rcpt, err
}

func (a *Adapter) ReleaseFunds(ctx context.Context, id *big.Int) (*Receipt, error) {
	rcpt, _, err := a.transact(ctx, domain.TxMethodReleaseFunds, nil, "releaseFunds", id)
	return rcpt, err
}

// GetInvestment reads investments(id) from the contract.
func (a *Adapter) GetInvestment(ctx context.Context, id *big.Int) (*Investment, error) {
	if err := a.requireProvider(); err != nil {
		return nil, err
	}
	vals, err := a.call(ctx, "investments", id)
	if err != nil {
		return nil, err
	}
	if len(vals) != 10 {
		return nil, fmt.Errorf("investments(%s): unexpected output length %d", id, len(vals))
	}
	out := &Investment{}
	investor, _ := vals[0].(common.Address)
	creator, _ := vals[1].(common.Address)
	amount, _ := vals[2].(*big.Int)
	out.Investor, out.Creator, out.Amount = investor.Hex(), creator.Hex(), FromBaseUnits(amount)
	out.TokensLocked, _ = vals[3].(bool)
	out.CallScheduled, _ = vals[4].(bool)
	out.DealConfirmed, _ = vals[5].(bool)
	out.MOUUploadedByInvestor, _ = vals[6].(bool)
	out.MOUUploadedByCreator, _ = vals[7].(bool)
	out.InvestorMOUHash, _ = vals[8].(string)
	out.CreatorMOUHash, _ = vals[9].(string)
	return out, nil
}

// InvestmentCounter reads the contract's investment counter.
func (a *Adapter) InvestmentCounter(ctx context.Context) (*big.Int, error) {
	if err := a.requireProvider(); err != nil {
		return nil, err
	}
	return a.investmentCounter(ctx)
}

func (a *Adapter) investmentCounter(ctx context.Context) (*big.Int, error) {
	vals, err := a.call(ctx, "investmentCounter")
	if err != nil {
		return nil, err
	}
	n, ok := vals[0].(*big.Int)
	if !ok {
		return nil, errors.New("investmentCounter: unexpected output")
	}
	return n, nil
}

func (a *Adapter) requireProvider() error {
	if a.provider == nil {
		return domain.Errorf(domain.ErrWalletNotConnected, "No wallet provider is configured")
	}
	return nil
}

func (a *Adapter) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := a.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack: %w", method, err)
	}
	msg := map[string]interface{}{"to": a.contract, "data": hexutil.Bytes(data)}
	var out hexutil.Bytes
	if err := a.provider.CallContext(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	vals, err := a.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return vals, nil
}

type rpcLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

type rpcReceipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	Status      hexutil.Uint64 `json:"status"`
	Logs        []rpcLog       `json:"logs"`
}

// transact submits a contract call from the connected account and waits for one confirmation.
func (a *Adapter) transact(ctx context.Context, op string, value *big.Int, method string, args ...interface{}) (rcpt *Receipt, logs []rpcLog, err error) {
	defer func() {
		a.metrics.Settlement(op, metrics.ResultOf(err, func(err error) bool {
			return errors.Is(err, domain.ErrWalletNotConnected) || errors.Is(err, domain.ErrNetworkMismatch) || errors.Is(err, domain.ErrValidation)
		}))
	}()

	a.mu.RLock()
	connected, from := a.connected, a.account
	a.mu.RUnlock()
	if !connected || a.provider == nil {
		return nil, nil, domain.Errorf(domain.ErrWalletNotConnected, "Wallet is not connected")
	}
	chainID, err := a.currentChainID(ctx)
	if err != nil {
		return nil, nil, &domain.TransactionError{Op: op, Reason: err.Error(), Err: err}
	}
	if chainID != a.cfg.ChainID {
		return nil, nil, domain.Errorf(domain.ErrNetworkMismatch, "Wallet is on chain %d, switch to %s (%d)", chainID, a.cfg.ChainName, a.cfg.ChainID)
	}

	data, err := a.abi.Pack(method, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: pack: %w", method, err)
	}
	tx := map[string]interface{}{"from": from, "to": a.contract, "data": hexutil.Bytes(data)}
	if value != nil && value.Sign() > 0 {
		tx["value"] = (*hexutil.Big)(value)
	}

	var hash common.Hash
	if err := a.provider.CallContext(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return nil, nil, txError(op, "", err)
	}
	log.Info().Str("op", op).Str("tx_hash", hash.Hex()).Msg("transaction sent")

	r, err := a.waitMined(ctx, hash)
	if err != nil {
		return nil, nil, txError(op, hash.Hex(), err)
	}
	rcpt = &Receipt{TxHash: hash.Hex(), BlockNumber: r.BlockNumber.ToInt().Uint64()}
	if r.Status == 0 {
		return rcpt, nil, &domain.TransactionError{Op: op, TxHash: rcpt.TxHash, Reason: "execution reverted"}
	}
	log.Info().Str("op", op).Str("tx_hash", rcpt.TxHash).Uint64("block", rcpt.BlockNumber).Msg("transaction mined")
	return rcpt, r.Logs, nil
}

func (a *Adapter) waitMined(ctx context.Context, hash common.Hash) (*rpcReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ReceiptTimeout)
	defer cancel()
	for {
		var r *rpcReceipt
		if err := a.provider.CallContext(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
			return nil, err
		}
		if r != nil && r.BlockNumber != nil {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt: %w", ctx.Err())
		case <-time.After(a.cfg.PollInterval):
		}
	}
}

// txError wraps a provider failure, decoding a revert reason when the node returned one.
func txError(op, hash string, err error) error {
	reason := err.Error()
	if code, ok := chain.RPCErrorCode(err); ok && code == codeUserRejected {
		reason = "rejected in wallet"
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if b, decErr := hexutil.Decode(s); decErr == nil {
				if r, unpackErr := abi.UnpackRevert(b); unpackErr == nil {
					reason = r
				}
			}
		}
	}
	return &domain.TransactionError{Op: op, TxHash: hash, Reason: reason, Err: err}
}
