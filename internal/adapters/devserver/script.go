package devserver

// Routes served next to the built assets.
const (
	EventsPath  = "/__meister/livereload"
	ScriptPath  = "/__meister/livereload.js"
	MetricsPath = "/__meister/metrics"
)

// clientScript connects to the event stream and reloads the page when the build
// hash changes.
const clientScript = `(() => {
  if (window.__MEISTER_LR__) return;
  window.__MEISTER_LR__ = true;
  function connect() {
    const es = new EventSource('` + EventsPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash && p.hash !== current) {
          current = p.hash;
          console.log('[meister] change detected, reloading');
          location.reload();
        }
      } catch (_) {}
    };
    es.onerror = () => {
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`
