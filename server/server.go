// Package server publishes per-tick world censuses to websocket clients.
// It is strictly an outer surface: it owns no simulation state and reads
// the world only through the census values handed to it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"

	"sparkgrid/world"
)

var upgrader = websocket.Upgrader{}

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Send pings to the peer with this period.
	pingPeriod = 54 * time.Second
	// Buffered censuses per client; slow clients drop updates instead of
	// stalling the feed.
	clientBacklog = 8
)

// Server fans one census stream out to any number of websocket clients.
type Server struct {
	addr   string
	source <-chan world.Census

	mu   sync.Mutex
	subs map[chan world.Census]struct{}
	last world.Census
}

// New returns a server reading from source. The source is typically fed by
// the step loop with a non-blocking send.
func New(addr string, source <-chan world.Census) *Server {
	return &Server{
		addr:   addr,
		source: source,
		subs:   make(map[chan world.Census]struct{}),
	}
}

// Serve fans out censuses and serves HTTP until ctx is done or the listener
// fails.
func (s *Server) Serve(ctx context.Context) error {
	go s.fanOut(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.HandleFunc("/ws", s.serveWebsocket)
	srv := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// fanOut copies every census to every subscriber, dropping for clients that
// cannot keep up.
func (s *Server) fanOut(ctx context.Context) {
	for c := range channerics.OrDone(ctx.Done(), s.source) {
		s.mu.Lock()
		s.last = c
		for sub := range s.subs {
			select {
			case sub <- c:
			default:
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) subscribe() chan world.Census {
	sub := make(chan world.Census, clientBacklog)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	if s.last.Tick > 0 {
		// Prime the client so it renders before the next tick lands.
		sub <- s.last
	}
	s.mu.Unlock()
	return sub
}

func (s *Server) unsubscribe(sub chan world.Census) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// serveWebsocket upgrades the request and streams censuses until the client
// goes away.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("websocket upgrade: %v", err)
		return
	}
	defer ws.Close()

	sub := s.subscribe()
	defer s.unsubscribe(sub)

	pinger := channerics.NewTicker(r.Context().Done(), pingPeriod)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-pinger:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case c := <-sub:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(c); err != nil {
				if glog.V(1) {
					glog.Infof("client write failed: %v", err)
				}
				return
			}
		}
	}
}

// serveIndex serves a minimal live status page over the websocket feed.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>sparkgrid</title></head>
<body style="background:#111;color:#ddd;font-family:monospace">
<h2>sparkgrid</h2>
<pre id="stats">waiting for ticks...</pre>
<canvas id="pop" width="600" height="100" style="border:1px solid #333"></canvas>
<script>
const stats = document.getElementById("stats");
const canvas = document.getElementById("pop");
const g = canvas.getContext("2d");
const history = [];
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const c = JSON.parse(ev.data);
  stats.textContent =
    "tick        " + c.tick + "\n" +
    "population  " + c.population + "\n" +
    "mean energy " + c.meanEnergy.toFixed(1) + "\n" +
    "max gen     " + c.maxGeneration + "\n" +
    "births      " + c.births + "\n" +
    "deaths      " + c.deaths + "\n" +
    "solar cells " + c.solarCells;
  history.push(c.population);
  if (history.length > canvas.width) history.shift();
  const max = Math.max(...history, 1);
  g.fillStyle = "#111";
  g.fillRect(0, 0, canvas.width, canvas.height);
  g.strokeStyle = "#6c6";
  g.beginPath();
  history.forEach((p, i) => {
    const y = canvas.height - p / max * canvas.height;
    i === 0 ? g.moveTo(i, y) : g.lineTo(i, y);
  });
  g.stroke();
};
</script>
</body>
</html>
`
