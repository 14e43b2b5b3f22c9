package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>CreditGuard</title>
    <meta name="description" content="Rule-based fraud screening dashboard">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>🛡</text></svg>">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --accent: #3b82f6;
            --low: #22c55e;
            --medium: #f59e0b;
            --high: #ef4444;
        }

        body {
            font-family: 'Inter', -apple-system, sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            font-size: 14px;
            line-height: 1.5;
            -webkit-font-smoothing: antialiased;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 0 24px; }

        header {
            border-bottom: 1px solid var(--border);
            padding: 16px 0;
            position: sticky;
            top: 0;
            background: var(--bg);
            z-index: 100;
        }
        .header-inner { display: flex; justify-content: space-between; align-items: center; }
        .logo { font-weight: 600; font-size: 15px; }
        .logo span { color: var(--text-secondary); font-weight: 400; margin-left: 8px; }

        .grid {
            display: grid;
            grid-template-columns: repeat(3, 1fr);
            gap: 20px;
            padding: 24px 0;
        }
        .card {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 10px;
            padding: 20px;
        }
        .card h2 { font-size: 15px; margin-bottom: 12px; }
        .card.full { grid-column: 1 / -1; }

        label { display: block; color: var(--text-secondary); font-size: 12px; margin: 10px 0 4px; }
        input {
            width: 100%;
            background: var(--bg);
            border: 1px solid var(--border);
            border-radius: 6px;
            color: var(--text);
            padding: 8px 10px;
            font-size: 14px;
        }
        button {
            margin-top: 14px;
            background: var(--accent);
            border: none;
            border-radius: 6px;
            color: #fff;
            padding: 9px 16px;
            font-size: 14px;
            font-weight: 500;
            cursor: pointer;
        }
        button:disabled { opacity: 0.5; cursor: default; }
        button.ghost { background: transparent; border: 1px solid var(--border); color: var(--text-secondary); }

        .error {
            margin-top: 12px;
            border: 1px solid var(--high);
            border-radius: 6px;
            color: var(--high);
            padding: 10px 12px;
            font-size: 13px;
            display: none;
        }

        .risk { font-weight: 600; }
        .risk.LOW { color: var(--low); }
        .risk.MEDIUM { color: var(--medium); }
        .risk.HIGH { color: var(--high); }

        .rule { border-top: 1px solid var(--border); padding: 8px 0; font-size: 13px; }
        .rule .reason { color: var(--text-secondary); }

        .summary { display: flex; gap: 12px; margin-top: 12px; }
        .summary div {
            flex: 1;
            background: var(--bg);
            border: 1px solid var(--border);
            border-radius: 6px;
            padding: 10px;
            text-align: center;
        }
        .summary .num { font-size: 20px; font-weight: 600; }
        .summary .label { color: var(--text-secondary); font-size: 12px; }

        table { width: 100%; border-collapse: collapse; margin-top: 8px; }
        th { text-align: left; color: var(--text-secondary); font-size: 12px; font-weight: 500; padding: 6px 8px; }
        td { padding: 6px 8px; border-top: 1px solid var(--border); font-size: 13px; }

        .placeholder { color: var(--text-secondary); font-size: 13px; }
    </style>
</head>
<body>
    <header>
        <div class="container header-inner">
            <div class="logo">🛡 CreditGuard<span>rule-based fraud screening</span></div>
            <div id="conn" class="placeholder">connecting…</div>
        </div>
    </header>

    <main class="container">
        <div class="grid">
            <div class="card">
                <h2>Evaluate Transaction</h2>
                <label>User ID</label><input id="user_id" placeholder="user_001">
                <label>Amount</label><input id="amount" placeholder="1500">
                <label>Currency</label><input id="currency" placeholder="USD" maxlength="8">
                <label>Country</label><input id="country" placeholder="US" maxlength="8">
                <label>Merchant</label><input id="merchant" placeholder="Store">
                <button id="evaluate">Evaluate</button>
                <div id="single-error" class="error"></div>
            </div>

            <div class="card">
                <h2>Result</h2>
                <div id="result" class="placeholder">Enter transaction details or upload a dataset to begin evaluation</div>
            </div>

            <div class="card">
                <h2>Batch Evaluation</h2>
                <p class="placeholder">Upload a JSON file (object or array) for bulk analysis</p>
                <input id="dataset" type="file" accept=".json" style="margin-top:12px">
                <button id="upload">Upload &amp; Evaluate</button>
                <div id="batch-error" class="error"></div>
                <div id="batch-summary" class="summary" style="display:none">
                    <div><div class="num" id="sum-total">0</div><div class="label">Total</div></div>
                    <div><div class="num risk HIGH" id="sum-high">0</div><div class="label">High</div></div>
                    <div><div class="num risk MEDIUM" id="sum-medium">0</div><div class="label">Medium</div></div>
                    <div><div class="num risk LOW" id="sum-low">0</div><div class="label">Low</div></div>
                </div>
            </div>

            <div class="card full">
                <h2>Session History <button id="clear" class="ghost" style="float:right;margin-top:-4px">Clear</button></h2>
                <table>
                    <thead><tr><th>Time</th><th>User</th><th>Risk</th><th>Score</th><th>Rules</th></tr></thead>
                    <tbody id="history"></tbody>
                </table>
            </div>
        </div>
    </main>

    <script>
        const $ = (id) => document.getElementById(id);

        function showError(id, message) {
            const el = $(id);
            el.textContent = message;
            el.style.display = message ? 'block' : 'none';
        }

        function renderResult(r) {
            $('result').innerHTML =
                '<div><span class="risk ' + r.risk_level + '">' + r.risk_level + '</span>' +
                ' — score ' + r.total_score + ' for ' + r.user_id + '</div>' +
                (r.triggered_rules || []).map(t =>
                    '<div class="rule"><strong>' + t.rule_name + '</strong> (+' + t.score_contribution + ')' +
                    '<div class="reason">' + t.reason + '</div></div>'
                ).join('');
        }

        async function refreshHistory() {
            const res = await fetch('/v1/history/recent');
            const data = await res.json();
            $('history').innerHTML = (data.results || []).map(r =>
                '<tr><td>' + (r.timestamp || '') + '</td><td>' + r.user_id + '</td>' +
                '<td class="risk ' + r.risk_level + '">' + r.risk_level + '</td>' +
                '<td>' + r.total_score + '</td><td>' + (r.triggered_rules || []).length + '</td></tr>'
            ).join('');
        }

        $('evaluate').addEventListener('click', async () => {
            $('evaluate').disabled = true;
            showError('single-error', '');
            try {
                const res = await fetch('/v1/evaluate', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({
                        user_id: $('user_id').value,
                        amount: $('amount').value,
                        currency: $('currency').value.toUpperCase(),
                        country: $('country').value.toUpperCase(),
                        merchant: $('merchant').value,
                    }),
                });
                const data = await res.json();
                if (!res.ok) throw new Error(data.message || 'Failed to evaluate transaction');
                renderResult(data);
                refreshHistory();
            } catch (err) {
                showError('single-error', err.message);
            } finally {
                $('evaluate').disabled = false;
            }
        });

        $('upload').addEventListener('click', async () => {
            const input = $('dataset');
            if (!input.files.length) return;
            $('upload').disabled = true;
            showError('batch-error', '');
            try {
                const form = new FormData();
                form.append('file', input.files[0]);
                const res = await fetch('/v1/datasets', { method: 'POST', body: form });
                const data = await res.json();
                if (!res.ok) throw new Error(data.message || 'Failed to process file');
                const s = data.summary;
                $('sum-total').textContent = s.total;
                $('sum-high').textContent = s.high;
                $('sum-medium').textContent = s.medium;
                $('sum-low').textContent = s.low;
                $('batch-summary').style.display = 'flex';
                refreshHistory();
            } catch (err) {
                showError('batch-error', err.message);
            } finally {
                $('upload').disabled = false;
                input.value = '';
            }
        });

        $('clear').addEventListener('click', async () => {
            await fetch('/v1/history', { method: 'DELETE' });
            $('result').textContent = 'Enter transaction details or upload a dataset to begin evaluation';
            $('batch-summary').style.display = 'none';
            refreshHistory();
        });

        // Live updates over WebSocket
        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onopen = () => { $('conn').textContent = 'live'; };
            ws.onmessage = () => { refreshHistory(); };
            ws.onclose = () => {
                $('conn').textContent = 'reconnecting…';
                setTimeout(connect, 3000);
            };
        }

        connect();
        refreshHistory();
    </script>
</body>
</html>`

// dashboardHandler serves the operator dashboard.
func dashboardHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, dashboardHTML)
}
