package health

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// dependencyLabels orders and names the connectivity rows.
var dependencyLabels = []struct{ key, label string }{
	{"database", "Database"},
	{"redis", "Redis"},
	{"wallet", "Wallet Provider"},
	{"chain_rpc", "Chain RPC"},
}

func depRows(deps map[string]DepStatus) string {
	var b strings.Builder
	seen := map[string]bool{}
	write := func(key, label string) {
		d, ok := deps[key]
		if !ok {
			return
		}
		seen[key] = true
		class := "err"
		if d.Status == StatusConnected || d.Status == StatusReachable {
			class = "ok"
		}
		ping := "--"
		if p, ok := d.PingMs.(*int64); ok && p != nil {
			ping = fmt.Sprintf("%d ms", *p)
		}
		fmt.Fprintf(&b, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="ping-%s">%s · %s</span></span></div>`+"\n",
			html.EscapeString(label), key, class, key, html.EscapeString(d.Status), ping)
	}
	for _, d := range dependencyLabels {
		write(d.key, d.label)
	}
	var rest []string
	for k := range deps {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		write(k, k)
	}
	return b.String()
}

// RenderDashboardHTML returns the status page served at GET /. The page polls
// /health/json a few times and then stops.
func RenderDashboardHTML(health Result) string {
	b, _ := json.Marshal(health)
	jsonStr := strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$").Replace(string(b))

	lastReq := "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		method, _ := m["method"].(string)
		path, _ := m["path"].(string)
		lastReq = strings.TrimSpace(method + " " + path)
	}
	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>IdeaNest API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --brand: #4F46E5; --dark: #1E1B4B; --bg: #F8FAFC; --muted: #64748b; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--dark); font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .container { width: 100%; max-width: 1000px; padding: 20px; }
    h1 { font-size: clamp(28px, 4vw, 48px); font-weight: 900; letter-spacing: -2px; text-align: center; margin: 0 0 8px 0; }
    h1.issue { color: #B91C1C; }
    .subtext { text-align: center; color: var(--muted); font-weight: 700; margin-bottom: 28px; }
    .card { background: #fff; border-radius: 24px; box-shadow: 0 20px 60px -20px rgba(79, 70, 229, 0.2); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 36px; border-right: 1px solid rgba(0,0,0,0.05); }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid rgba(0,0,0,0.03); font-size: 14px; font-weight: 700; }
    .pill { padding: 4px 10px; border-radius: 10px; font-size: 11px; font-weight: 900; display: flex; align-items: center; gap: 6px; }
    .ok { background: rgba(79, 70, 229, 0.08); color: var(--brand); }
    .err { background: rgba(239, 68, 68, 0.08); color: #EF4444; }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .footer { background: rgba(30, 27, 75, 0.03); padding: 16px 36px; font-family: monospace; font-size: 13px; display: flex; justify-content: space-between; }
    .actions { margin-top: 24px; display: flex; justify-content: center; gap: 12px; }
    button { background: transparent; color: var(--muted); border: 1px solid rgba(0,0,0,0.1); padding: 8px 18px; border-radius: 10px; cursor: pointer; font-weight: 800; }
    #errors { display: none; margin-top: 24px; background: #fff; border-radius: 16px; padding: 24px; max-height: 50vh; overflow-y: auto; font-size: 13px; }
    .err-msg { color: #e11d48; font-weight: 700; }
    @media (max-width: 900px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline" class="` + health.Status + `">` + headline + `</h1>
    <p class="subtext">Negotiation API, storage and settlement connectivity.</p>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">` + fmt.Sprint(health.Runtime.UptimeSeconds) + `s</div>
          <div class="row"><span>Heap Used</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Go</span><span>` + health.Runtime.GoVersion + `</span></div>
          <div class="row"><span>Platform</span><span>` + health.Runtime.Platform + `</span></div>
        </div>
        <div class="col">
          <div class="label">Connectivity</div>
          ` + depRows(health.Dependencies) + `
        </div>
      </div>
      <div class="footer"><span>LAST INBOUND</span><span id="last-req">` + html.EscapeString(lastReq) + `</span></div>
    </div>
    <div class="actions">
      <button onclick="showErrors()">View Error Log</button>
      <button onclick="tick()">Refresh</button>
    </div>
    <div id="errors"></div>
  </div>
  <script>
    let left = 3;
    const set = (id, v) => { const el = document.getElementById(id); if (el) el.innerText = v; };
    const updateUI = (d) => {
      set('total-req', d.traffic.totalRequests);
      set('success-count', d.traffic.successCount);
      set('failed-count', d.traffic.failedCount);
      set('success-rate', d.traffic.successRate + '%');
      set('avg-time', d.traffic.avgResponseTime + 'ms');
      set('uptime', d.runtime.uptimeSeconds + 's');
      set('mem-heap', d.runtime.memory.heapUsed + ' MB');
      set('goroutines', d.runtime.goroutines);
      if (d.traffic.lastRequest) set('last-req', d.traffic.lastRequest.method + ' ' + d.traffic.lastRequest.path);
      Object.entries(d.dependencies).forEach(([k, v]) => {
        const pill = document.getElementById('pill-' + k);
        if (!pill) return;
        pill.className = 'pill ' + ((v.status === 'connected' || v.status === 'reachable') ? 'ok' : 'err');
        set('ping-' + k, v.status + ' · ' + (v.pingMs != null ? v.pingMs + ' ms' : '--'));
      });
      const hl = document.getElementById('headline');
      hl.className = d.status;
      hl.innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
    };
    async function tick() { try { const r = await fetch('/health/json'); updateUI(await r.json()); } catch (e) {} }
    async function showErrors() {
      const box = document.getElementById('errors');
      box.style.display = 'block';
      box.innerText = 'Fetching logs...';
      try {
        const errors = await (await fetch('/health/errors')).json();
        if (errors.length === 0) { box.innerText = 'No internal errors recorded.'; return; }
        box.innerHTML = '';
        errors.forEach(e => {
          const item = document.createElement('div');
          item.innerHTML = '<div></div><div class="err-msg"></div>';
          item.children[0].innerText = new Date(e.time).toLocaleString() + ' ' + (e.method || '') + ' ' + (e.path || '');
          item.children[1].innerText = e.message || '';
          box.appendChild(item);
        });
      } catch (e) { box.innerText = 'Error loading logs.'; }
    }
    updateUI(JSON.parse(` + "`" + jsonStr + "`" + `));
    const timer = setInterval(() => { if (--left < 0) { clearInterval(timer); return; } tick(); }, 10000);
  </script>
</body>
</html>`
}
