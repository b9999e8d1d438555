package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"stockfolio-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// QuoteCounter reports how many symbols have a stored quote.
type QuoteCounter interface {
	CountQuotes(ctx context.Context) (int64, error)
}

// Probes are the dependencies CollectHealth inspects. Redis is optional:
// without it the service runs with in-process locks and no request stats.
type Probes struct {
	Redis       *redis.Client
	DB          DBPinger
	Quotes      QuoteCounter
	PriceSource string
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
	Goroutines    int        `json:"goroutines"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
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
	Detail interface{} `json:"detail,omitempty"`
}

// processStart is used for uptime when Redis holds no start time.
var processStart = time.Now()

// CollectHealth gathers dependency status, request stats and runtime info.
func CollectHealth(ctx context.Context, p Probes) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus, dbPing := "disconnected", (*int64)(nil)
	if p.DB != nil {
		dbStatus, dbPing = timedPing(p.DB.Ping)
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPing}

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := processStart.UnixMilli()
	redisStatus, redisPing := "disabled", (*int64)(nil)
	if p.Redis != nil {
		redisStatus, redisPing = timedPing(func() error { return p.Redis.Ping(ctx).Err() })
		if redisStatus == "connected" {
			startTimeMs = readTraffic(ctx, p.Redis, &stats, startTimeMs)
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPing}
	result.Traffic = stats

	prices := DepStatus{Status: "configured", Detail: map[string]interface{}{"source": p.PriceSource}}
	if p.Quotes != nil && dbStatus == "connected" {
		if n, err := p.Quotes.CountQuotes(ctx); err == nil {
			prices.Detail = map[string]interface{}{"source": p.PriceSource, "quotedSymbols": n}
		}
	}
	result.Dependencies["prices"] = prices

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}

	result.Status = "issue"
	if dbStatus == "connected" && redisStatus != "error" {
		result.Status = "ok"
	}
	return result
}

func timedPing(ping func() error) (string, *int64) {
	start := time.Now()
	if err := ping(); err != nil {
		return "error", nil
	}
	ms := time.Since(start).Milliseconds()
	return "connected", &ms
}

// readTraffic fills stats from the HealthMarker counters and returns the
// recorded start time, initializing it when absent.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startTimeMs int64) int64 {
	vals, err := rdb.MGet(ctx,
		middleware.KeyReqTotal,
		middleware.KeyReqErrors,
		middleware.KeyResTime,
		middleware.KeyResCount,
		middleware.KeyStartTime,
		middleware.KeyLastReq,
	).Result()
	if err != nil {
		return startTimeMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if s := str(4); s != "" {
		if t, err := strconv.ParseInt(s, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	countSum, _ := strconv.Atoi(str(3))
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if s := str(5); s != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(s), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}
