// Command pigwarserver runs the authoritative pig-war game server: a
// raw TCP listener, the room registry, and the message dispatcher.
// Wiring follows apps/server/main.go's plain top-level construction (no
// DI framework, no init magic) adapted from an HTTP+WebSocket upgrade
// to a bare TCP accept loop.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"pigwarserver/internal/config"
	"pigwarserver/internal/conn"
	"pigwarserver/internal/dispatch"
	"pigwarserver/internal/history"
	"pigwarserver/internal/metrics"
	"pigwarserver/internal/room"
	"pigwarserver/internal/session"
	"pigwarserver/internal/wire"
)

const (
	defaultAddr       = ":32500"
	maxLiveConnection = 4 * room.MaxRooms
	roomGaugeInterval = 10 * time.Second
)

func main() {
	singlePlayer := flag.Bool("p", false, "single-player dev mode (implies -t)")
	immediateStart := flag.Bool("s", false, "immediate start on host, skip lobby ready wait")
	ignoreTurns := flag.Bool("t", false, "ignore turn ownership and timers")
	logPackets := flag.Bool("o", false, "log every inbound/outbound packet")
	configPath := flag.String("config", "", "optional TOML file with server defaults")
	dbPath := flag.String("db", "", "optional sqlite path for match history")
	metricsAddr := flag.String("metrics-addr", "", "optional bind address for /metrics")
	flag.Parse()

	defaults, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] config load failed: %v", err)
	}

	addr := defaultAddr
	if defaults.Addr != "" {
		addr = defaults.Addr
	}
	if defaults.HistoryDBPath != "" && *dbPath == "" {
		*dbPath = defaults.HistoryDBPath
	}
	if defaults.MetricsAddr != "" && *metricsAddr == "" {
		*metricsAddr = defaults.MetricsAddr
	}

	var hist history.Service
	if *dbPath != "" {
		sqliteHist, err := history.NewSQLiteService(*dbPath)
		if err != nil {
			log.Fatalf("[Server] history db init failed: %v", err)
		}
		defer sqliteHist.Close()
		hist = sqliteHist
	}

	m := metrics.New()
	if hist != nil {
		hist = &meteredHistory{inner: hist, m: m}
	}

	var mgr *conn.Manager
	var dispatcher *dispatch.Dispatcher

	reg := room.NewRegistry(func(out []room.Outbound) {
		for _, o := range out {
			if *logPackets {
				log.Printf("[packet] out client=%d id=%d bytes=%d", o.ClientID, o.PacketID, len(o.Body))
			}
			m.PacketsOut.WithLabelValues(msgIDLabel(o.PacketID)).Inc()
			mgr.Send(o.ClientID, o.PacketID, o.Body)
		}
	}, hist)

	engine := session.NewEngine(reg, session.DevFlags{
		SinglePlayer:   *singlePlayer,
		IgnoreTurns:    *ignoreTurns,
		ImmediateStart: *immediateStart,
	})

	mgr = conn.NewManager(
		func(clientID uint32) {
			m.ConnectionsActive.Inc()
			body := wire.Welcome{Version: "1", MyID: clientID}.Encode()
			if *logPackets {
				log.Printf("[packet] out client=%d id=%d bytes=%d (welcome)", clientID, wire.SWelcome, len(body))
			}
			mgr.Send(clientID, wire.SWelcome, body)
		},
		func(clientID uint32, msgID uint8, body []byte) {
			if *logPackets {
				log.Printf("[packet] in client=%d id=%d bytes=%d", clientID, msgID, len(body))
			}
			m.PacketsIn.WithLabelValues(msgIDLabel(msgID)).Inc()
			dispatcher.Route(clientID, msgID, body)
		},
		func(clientID uint32) {
			m.ConnectionsActive.Dec()
			dispatcher.Disconnect(clientID)
		},
	)
	dispatcher = dispatch.New(engine, mgr.Send)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("[Server] listen on %s failed: %v", addr, err)
	}
	ln = netutil.LimitListener(ln, maxLiveConnection)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		log.Printf("[Server] pigwarserver listening on %s (p=%v s=%v t=%v o=%v)", addr, *singlePlayer, *immediateStart, *ignoreTurns, *logPackets)
		err := mgr.Serve(ln)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(roomGaugeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				m.RoomsActive.Set(float64(reg.Count()))
			}
		}
	})

	if *metricsAddr != "" {
		metricsSrv := &http.Server{Addr: *metricsAddr, Handler: m.Handler()}
		g.Go(func() error {
			log.Printf("[Server] metrics listening on %s", *metricsAddr)
			return metricsSrv.ListenAndServe()
		})
		g.Go(func() error {
			<-ctx.Done()
			return metricsSrv.Close()
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("[Server] %v", err)
	}
	reg.Close()
	log.Printf("[Server] shut down")
}

// meteredHistory wraps a history.Service to bump the matches_finished
// counter alongside every recorded match, keeping internal/room free of
// a direct metrics dependency.
type meteredHistory struct {
	inner history.Service
	m     *metrics.Metrics
}

func (h *meteredHistory) RecordMatch(rec history.Record) {
	h.m.MatchesFinished.WithLabelValues(rec.WinType).Inc()
	h.inner.RecordMatch(rec)
}

func (h *meteredHistory) Close() error { return h.inner.Close() }

func msgIDLabel(id uint8) string {
	return strconv.Itoa(int(id))
}
