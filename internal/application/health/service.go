package health

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"ideanest-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
	StatusReachable    = "reachable"
	StatusUnreachable  = "unreachable"
)

// DBPinger is optional; nil reports the database as disconnected.
type DBPinger interface {
	Ping() error
}

// Wallet reports the settlement adapter's connection. *settlement.Adapter implements it.
type Wallet interface {
	Connected() bool
}

// Checker gathers the health snapshot served by /health/json and the dashboard.
type Checker struct {
	Rdb    *redis.Client
	DB     DBPinger
	Wallet Wallet
	// ChainRPCURL is the public RPC endpoint probed with eth_chainId.
	ChainRPCURL string
	Client      *http.Client
}

// Result is the health snapshot.
type Result struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// Collect gathers dependency state, request counters recorded by the health
// marker, and runtime figures. The service is "ok" when the database and Redis
// are connected; wallet and chain RPC are reported but do not fail the check.
func (h *Checker) Collect(ctx context.Context) Result {
	result := Result{Dependencies: make(map[string]DepStatus)}

	dbStatus := StatusDisconnected
	var dbPingMs *int64
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = StatusConnected
		} else {
			dbStatus = StatusError
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := StatusDisconnected
	var redisPingMs *int64
	traffic := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = StatusConnected
			startTimeMs = h.readTraffic(ctx, &traffic, startTimeMs)
		} else {
			redisStatus = StatusError
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}
	result.Traffic = traffic

	walletStatus := StatusDisconnected
	if h.Wallet != nil && h.Wallet.Connected() {
		walletStatus = StatusConnected
	}
	result.Dependencies["wallet"] = DepStatus{Status: walletStatus}

	rpcStatus := StatusUnreachable
	rpcPing := h.pingRPC(ctx)
	if rpcPing != nil {
		rpcStatus = StatusReachable
	}
	result.Dependencies["chain_rpc"] = DepStatus{Status: rpcStatus, PingMs: rpcPing}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if dbStatus == StatusConnected && redisStatus == StatusConnected {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

// readTraffic fills the request counters and returns the recorded start time.
func (h *Checker) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := h.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := h.Rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := h.Rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := h.Rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := h.Rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := h.Rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		h.Rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

// pingRPC posts eth_chainId to the public RPC and returns the round trip, or nil on failure.
func (h *Checker) pingRPC(ctx context.Context) *int64 {
	if h.ChainRPCURL == "" {
		return nil
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.ChainRPCURL, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	ms := time.Since(start).Milliseconds()
	return &ms
}
