package webserver

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

type pageData struct {
	Title        string
	WebSocketURL string
	Seasons      []int
}

func (m *Manager) pageHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "ws://"
	if r.TLS != nil {
		scheme = "wss://"
	}
	data := pageData{
		Title:        "F1 Visualizer",
		WebSocketURL: scheme + r.Host + "/ws",
		Seasons:      m.dashboard.Resolver().Seasons(),
	}

	buf := new(bytes.Buffer)
	if err := homeTemplate.Execute(buf, data); err != nil {
		logrus.WithError(err).Error("Could not render dashboard template")
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	minifier := &html.Minifier{KeepEndTags: true, KeepDocumentTags: true}
	if err := minifier.Minify(minify.New(), w, buf, nil); err != nil {
		logrus.WithError(err).Warn("Minifying dashboard page")
	}
}

var homeTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ .Title }}</title>
  <style>
    body { font-family: sans-serif; margin: 0; display: flex; }
    aside { width: 260px; padding: 16px; background: #f3f3f3; min-height: 100vh; }
    main { flex: 1; padding: 16px; }
    label { display: block; margin-top: 12px; font-weight: bold; }
    select { width: 100%; }
    .driver { display: block; font-weight: normal; }
    .swatch { display: inline-block; width: 10px; height: 10px; margin-right: 4px; }
    #message { color: #a33; }
    #cache { color: #777; font-size: 12px; margin-top: 24px; }
    img { max-width: 100%; display: block; margin-bottom: 16px; }
    table { border-collapse: collapse; }
    td, th { padding: 2px 8px; text-align: left; }
  </style>
</head>
<body>
  <aside>
    <h2>{{ .Title }}</h2>
    <label for="season">Season</label>
    <select id="season">
      {{ range .Seasons }}<option value="{{ . }}">{{ . }}</option>{{ end }}
    </select>
    <label for="event">Event</label>
    <select id="event"></select>
    <label for="session">Session</label>
    <select id="session"></select>
    <label>Drivers</label>
    <div id="drivers"></div>
    <div id="links"></div>
    <div id="cache"></div>
  </aside>
  <main>
    <h1 id="title"></h1>
    <p id="message"></p>
    <div id="charts"></div>
    <table id="positions"></table>
  </main>

  <script>
    const wsUrl = '{{ .WebSocketURL }}';
    const seasonEl = document.getElementById('season');
    const eventEl = document.getElementById('event');
    const sessionEl = document.getElementById('session');
    const driversEl = document.getElementById('drivers');

    // season 0 lets the server pick the latest season with events
    let selection = { season: 0, event: '', session: '', drivers: [] };
    const socket = new WebSocket(wsUrl);

    socket.addEventListener('open', () => send());
    socket.addEventListener('message', (event) => {
      const msg = JSON.parse(event.data);
      if (msg.type === 'view') {
        render(msg.view);
      } else if (msg.type === 'cache') {
        document.getElementById('cache').textContent = 'Cache: ' + msg.cache;
      } else if (msg.type === 'error') {
        document.getElementById('message').textContent = msg.error;
      }
    });
    socket.addEventListener('close', () => {
      document.getElementById('message').textContent = 'Connection lost, reload the page.';
    });

    function send() {
      socket.send(JSON.stringify(selection));
    }

    function query() {
      const p = new URLSearchParams({ season: selection.season, event: selection.event, session: selection.session });
      for (const d of selection.drivers) p.append('driver', d);
      return p.toString();
    }

    function fill(el, options, value) {
      el.innerHTML = '';
      for (const o of options) {
        const opt = document.createElement('option');
        opt.value = o.value;
        opt.textContent = o.label;
        opt.selected = o.value === value;
        el.appendChild(opt);
      }
    }

    function render(view) {
      selection = view.selection;
      seasonEl.value = selection.season;
      fill(eventEl, view.events, selection.event);
      fill(sessionEl, view.sessionTypes, selection.session);

      driversEl.innerHTML = '';
      for (const d of view.drivers) {
        const label = document.createElement('label');
        label.className = 'driver';
        const box = document.createElement('input');
        box.type = 'checkbox';
        box.value = d.code;
        box.checked = selection.drivers.includes(d.code);
        box.addEventListener('change', () => {
          selection.drivers = Array.from(driversEl.querySelectorAll('input:checked')).map((i) => i.value);
          send();
        });
        const swatch = document.createElement('span');
        swatch.className = 'swatch';
        swatch.style.background = '#' + (d.teamColor || '999');
        label.append(box, swatch, d.code + ' ' + d.fullName);
        driversEl.appendChild(label);
      }

      document.getElementById('title').textContent = view.event ? view.event.name + (view.session ? ' - ' + view.session.name : '') : '';
      document.getElementById('message').textContent = view.message || '';

      const charts = document.getElementById('charts');
      charts.innerHTML = '';
      if (view.lapChart && view.lapChart.series.length > 0) {
        charts.innerHTML += '<img alt="lap times" src="/api/charts/laps.svg?' + query() + '">';
      }
      if (view.telemetryChart && view.telemetryChart.series.length > 0) {
        charts.innerHTML += '<img alt="telemetry" src="/api/charts/telemetry.svg?' + query() + '">';
      }

      const links = document.getElementById('links');
      links.innerHTML = view.drivers.length > 0
        ? '<p><a href="/api/report.txt?' + query() + '">Report</a> | <a href="/api/report.xlsx?' + query() + '">Excel</a></p>'
        : '';

      const table = document.getElementById('positions');
      table.innerHTML = view.positions.length > 0 ? '<tr><th>Pos</th><th>Driver</th><th>Status</th></tr>' : '';
      for (const p of view.positions) {
        const row = table.insertRow();
        row.insertCell().textContent = p.position > 0 ? p.position : '-';
        row.insertCell().textContent = p.driver.code;
        row.insertCell().textContent = p.status;
      }
    }

    seasonEl.addEventListener('change', () => {
      selection = { season: parseInt(seasonEl.value, 10), event: '', session: '', drivers: [] };
      send();
    });
    eventEl.addEventListener('change', () => {
      selection.event = eventEl.value;
      selection.session = '';
      send();
    });
    sessionEl.addEventListener('change', () => {
      selection.session = sessionEl.value;
      send();
    });
  </script>
</body>
</html>
`))
