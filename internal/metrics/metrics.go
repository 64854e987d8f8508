package metrics

import (
	"context"
	"errors"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
)

// Metrics owns a private registry so tests and multiple bots in one process never collide.
type Metrics struct {
	Registry *prometheus.Registry

	commands *prometheus.CounterVec
	moves    *prometheus.CounterVec
	started  prometheus.Counter
	finished *prometheus.CounterVec
	active   prometheus.Gauge
	egress   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttt_commands_total",
			Help: "Bot commands handled, by command and result.",
		}, []string{"command", "result"}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttt_moves_total",
			Help: "Move attempts, by outcome or rejection kind.",
		}, []string{"result"}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ttt_games_started_total",
			Help: "Games started.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttt_games_finished_total",
			Help: "Games that left the store, by result kind.",
		}, []string{"kind"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ttt_games_active",
			Help: "Games currently in progress.",
		}),
		egress: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttt_egress_failures_total",
			Help: "Replies that could not be delivered, by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.commands, m.moves, m.started, m.finished, m.active, m.egress)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) Command(name, result string) { m.commands.WithLabelValues(name, result).Inc() }

func (m *Metrics) Move(result string) { m.moves.WithLabelValues(result).Inc() }

func (m *Metrics) GameStarted() {
	m.started.Inc()
	m.active.Inc()
}

func (m *Metrics) EgressFailed(kind string) { m.egress.WithLabelValues(kind).Inc() }

// Record counts a game leaving the store. It is attached as a tictactoe.ResultRecorder.
func (m *Metrics) Record(_ context.Context, res *tictactoe.Result) error {
	if res == nil {
		return nil
	}
	m.finished.WithLabelValues(string(res.Kind)).Inc()
	m.active.Dec()
	return nil
}

// Handler serves /metrics (and a bare /healthz) for fasthttp.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	prom := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/metrics":
			prom(ctx)
		case "/healthz":
			ctx.SetStatusCode(fasthttp.StatusOK)
			_, _ = ctx.WriteString("ok")
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return m.serveListener(ctx, ln, logger)
}

func (m *Metrics) serveListener(ctx context.Context, ln net.Listener, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &fasthttp.Server{Handler: m.Handler(), Name: "tictactoe-metrics"}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("metrics_listening", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
}

var _ tictactoe.ResultRecorder = (*Metrics)(nil)
