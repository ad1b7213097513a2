// Package debugsrv is an optional, read-only HTTP introspection sidecar for
// a running router.Pathfinder: Prometheus metrics and JSON snapshots of the
// grid and last solution. It is not part of the routing core and never
// mutates it.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package debugsrv

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teris-io/shortid"
	"github.com/tidwall/buntdb"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/aie-pathfinder/router/cmn/nlog"
	"github.com/aie-pathfinder/router/router"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Metrics holds the Prometheus collectors this sidecar exposes, mirroring
// the teacher's core-stats naming (count/latency per verb) generalized to
// routing iterations instead of storage I/O.
type Metrics struct {
	Iterations   prometheus.Counter
	IllegalEdges prometheus.Gauge
	OverCapacity prometheus.Counter
	RouteSeconds prometheus.Histogram
}

// NewMetrics registers a fresh metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aie_pathfinder_iterations_total",
			Help: "Total negotiated-congestion iterations run across all findPaths calls.",
		}),
		IllegalEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aie_pathfinder_illegal_edges",
			Help: "Illegal (over-capacity) edges observed at the end of the last iteration.",
		}),
		OverCapacity: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aie_pathfinder_over_capacity_total",
			Help: "Cumulative count of arcs over capacity at the end of the last iteration of each observed findPaths call.",
		}),
		RouteSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "aie_pathfinder_route_duration_seconds",
			Help: "Wall-clock duration of a findPaths call.",
		}),
	}
	reg.MustRegister(m.Iterations, m.IllegalEdges, m.OverCapacity, m.RouteSeconds)
	return m
}

// Observe folds one findPaths run's stats into the metric set.
func (m *Metrics) Observe(stats router.IterationStats, seconds float64) {
	m.Iterations.Add(float64(stats.Iterations))
	m.IllegalEdges.Set(float64(stats.IllegalEdges))
	if stats.IllegalEdges > 0 {
		m.OverCapacity.Add(float64(stats.IllegalEdges))
	}
	m.RouteSeconds.Observe(seconds)
}

// Server mounts /metrics, /grid, and /solution on top of a fasthttp server.
// Grid snapshots are mirrored into an in-memory buntdb index so /grid
// supports a simple source-column filter (?col=N) without re-walking the
// source map; the index is never the routing core's source of truth.
// /solution serves the last published solution as stored, unfiltered.
type Server struct {
	reg     *prometheus.Registry
	metrics *Metrics

	mu      sync.RWMutex
	runID   string
	index   *buntdb.DB
	lastSol []byte
}

// NewServer constructs a Server with its own Prometheus registry.
func NewServer() (*Server, error) {
	idx, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &Server{
		reg:     reg,
		metrics: NewMetrics(reg),
		index:   idx,
	}, nil
}

// Metrics returns the server's metric set, for callers that want to call
// Observe directly after a findPaths run.
func (s *Server) Metrics() *Metrics { return s.metrics }

// BeginRun mints a new run ID, stores it on the Server, logs it once, and
// returns it. The ID is not added to other log lines or to the /grid or
// /solution snapshots.
func (s *Server) BeginRun() string {
	id, err := shortid.Generate()
	if err != nil {
		id = "unknown"
	}
	s.mu.Lock()
	s.runID = id
	s.mu.Unlock()
	nlog.Infof("debugsrv: begin run %s", id)
	return id
}

// PublishGrid mirrors every arc's occupancy into the buntdb index under
// keys "grid:<srcTile>:<dstTile>:<srcPort>:<dstPort>", so /grid can serve
// ad-hoc column/row-filtered queries via db.View (e.g. AscendKeys
// "grid:(3,*"). The prior snapshot is cleared first.
func (s *Server) PublishGrid(g *router.Grid) error {
	return s.index.Update(func(tx *buntdb.Tx) error {
		var stale []string
		_ = tx.AscendKeys("grid:*", func(key, _ string) bool {
			stale = append(stale, key)
			return true
		})
		for _, k := range stale {
			_, _ = tx.Delete(k)
		}

		for _, arc := range g.Snapshot() {
			key := "grid:" + arc.SrcTile.String() + ":" + arc.DstTile.String() + ":" + arc.SrcPort.String() + ":" + arc.DstPort.String()
			raw, err := json.Marshal(arc)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(key, string(raw), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// PublishSolution stores the jsoniter-encoded solution for /solution.
func (s *Server) PublishSolution(sol router.Solution) error {
	raw, err := json.Marshal(projectSolution(sol))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSol = raw
	s.mu.Unlock()
	return nil
}

func projectSolution(sol router.Solution) map[string]map[string]switchSettingsView {
	out := make(map[string]map[string]switchSettingsView, len(sol))
	for src, perSB := range sol {
		inner := make(map[string]switchSettingsView, len(perSB))
		for sb, settings := range perSB {
			dsts := make([]string, 0, len(settings.Dsts))
			for _, p := range settings.SortedDsts() {
				dsts = append(dsts, p.String())
			}
			inner[sb.String()] = switchSettingsView{Src: settings.Src.String(), Dsts: dsts}
		}
		out[src.String()] = inner
	}
	return out
}

type switchSettingsView struct {
	Src  string   `json:"src"`
	Dsts []string `json:"dsts"`
}

// Handler returns the fasthttp request handler mounting /metrics, /grid,
// and /solution.
func (s *Server) Handler() fasthttp.RequestHandler {
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/metrics":
			metricsHandler(ctx)
		case "/solution":
			s.mu.RLock()
			raw := s.lastSol
			s.mu.RUnlock()
			if raw == nil {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(raw)
		case "/grid":
			s.serveGrid(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

func (s *Server) serveGrid(ctx *fasthttp.RequestCtx) {
	pattern := "grid:*"
	if col := ctx.QueryArgs().Peek("col"); len(col) > 0 {
		pattern = "grid:(" + string(col) + ",*"
	}

	arcs := make([]jsoniter.RawMessage, 0)
	_ = s.index.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(pattern, func(_, value string) bool {
			arcs = append(arcs, jsoniter.RawMessage(value))
			return true
		})
	})
	raw, err := json.Marshal(arcs)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

// ListenAndServe starts the fasthttp server on addr, blocking until it
// returns an error.
func (s *Server) ListenAndServe(addr string) error {
	nlog.Infof("debugsrv: listening on %s", addr)
	return fasthttp.ListenAndServe(addr, s.Handler())
}

// Close releases the in-memory buntdb index.
func (s *Server) Close() error { return s.index.Close() }
