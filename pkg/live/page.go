package live

import "net/http"

// indexHTML is the demo page. It opens the websocket, renders each patch
// into a div keyed by instance ID and exposes send() for action bindings
// embedded in rendered fragments.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>datum live</title>
<style>
body { font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff; }
main div { padding: 12px 0; border-bottom: 1px solid #333; }
button { font-size: 1rem; padding: 4px 12px; }
</style>
</head>
<body>
<h1>datum live</h1>
<main id="app"></main>
<script>
const proto = location.protocol === "https:" ? "wss:" : "ws:";
const ws = new WebSocket(proto + "//" + location.host + "/ws");
ws.onmessage = (msg) => {
  const frame = JSON.parse(msg.data);
  if (frame.error) {
    console.error(frame.error.code + ": " + frame.error.message);
    return;
  }
  let el = document.getElementById(frame.instance);
  if (!el) {
    el = document.createElement("div");
    el.id = frame.instance;
    document.getElementById("app").appendChild(el);
  }
  el.innerHTML = frame.html;
};
function send(action, value) {
  ws.send(JSON.stringify({action: action, value: value || ""}));
}
</script>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
