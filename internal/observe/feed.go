package observe

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"

	"github.com/evolsim/evol/internal/engine"
	"github.com/evolsim/evol/internal/utils"
)

// sampleInterval is how often the feed samples engine summaries.
const sampleInterval = time.Second

// retrainEvery is how many samples pass between novelty model refits.
const retrainEvery = 30

// engineSummaryJSON is the per-engine slice of a telemetry frame.
type engineSummaryJSON struct {
	Engine     int    `json:"engine"`
	Turns      uint64 `json:"turns"`
	Population int    `json:"population"`
	Dead       uint64 `json:"dead"`
	Births     uint64 `json:"births"`
	PopLow     int    `json:"pop_low"`
	PopHigh    int    `json:"pop_high"`
	TickAvgUs  int64  `json:"tick_avg_us"`
}

// telemetryFrame is the message pushed to every connected feed client.
type telemetryFrame struct {
	Engines          []engineSummaryJSON `json:"engines"`
	AsteroidWaiting  int                 `json:"asteroid_waiting"`
	AsteroidLaunched uint64              `json:"asteroid_launched"`
	AsteroidLanded   uint64              `json:"asteroid_landed"`
	DistinctGenomes  uint64              `json:"distinct_genomes"`
}

// Feed streams engine telemetry to websocket clients and drives the
// run's analytics: population history, genome census, novelty model. It
// is a read-only observer — it locks one engine at a time and never
// mutates simulation state.
type Feed struct {
	supervisor *engine.Supervisor
	history    *History
	census     *GenomeCensus
	novelty    *NoveltyScorer
	logger     *utils.Logger

	upgrader websocket.Upgrader
	limiter  *limiter.TokenBucket

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	server *http.Server
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewFeed builds a feed over the supervised engines.
func NewFeed(supervisor *engine.Supervisor, logger *utils.Logger) *Feed {
	if logger == nil {
		logger = utils.DefaultLogger("feed")
	}

	limiterStore := store.NewMemoryStore(time.Minute)
	tb, _ := limiter.NewTokenBucket(
		limiter.Config{
			Rate:     2,
			Duration: time.Second,
			Burst:    5,
		},
		limiterStore,
	)

	return &Feed{
		supervisor: supervisor,
		history:    NewHistory(0),
		census:     NewGenomeCensus(0),
		novelty:    NewNoveltyScorer(8),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		limiter: tb,
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// History returns the population history recorder, for report generation.
func (f *Feed) History() *History { return f.history }

// Census returns the genome census.
func (f *Feed) Census() *GenomeCensus { return f.census }

// Start begins sampling and serves the websocket endpoint on addr. An empty
// addr starts the sampler only.
func (f *Feed) Start(addr string) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.sampleLoop()
	}()

	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", f.handleTelemetry)
	f.server = &http.Server{Addr: addr, Handler: mux}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.logger.Info("telemetry feed listening", utils.String("addr", addr))
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Error("telemetry feed server failed", utils.Err(err))
		}
	}()
}

// Stop shuts the server down and stops sampling.
func (f *Feed) Stop() error {
	close(f.done)
	if f.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		f.server.Shutdown(ctx)
	}
	f.wg.Wait()
	return nil
}

func (f *Feed) sampleLoop() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	samples := 0
	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
		}

		frame, summaries := f.collect()
		f.history.Record(summaries)
		f.broadcast(frame)

		if samples++; samples%retrainEvery == 0 {
			f.updateAnalytics()
		}
	}
}

// collect assembles one telemetry frame from engine summaries, one engine
// lock at a time.
func (f *Feed) collect() (telemetryFrame, []engine.Summary) {
	engines := f.supervisor.Engines()
	frame := telemetryFrame{
		Engines: make([]engineSummaryJSON, 0, len(engines)),
	}
	summaries := make([]engine.Summary, 0, len(engines))
	for _, e := range engines {
		sum := e.Summary()
		summaries = append(summaries, sum)
		frame.Engines = append(frame.Engines, engineSummaryJSON{
			Engine:     sum.EngineID,
			Turns:      sum.Turns,
			Population: sum.Population,
			Dead:       sum.Dead,
			Births:     sum.Births,
			PopLow:     sum.Watermarks.PopulationLow,
			PopHigh:    sum.Watermarks.PopulationHigh,
			TickAvgUs:  sum.Timer.AvgMicros,
		})
	}

	asteroid := f.supervisor.Asteroid()
	frame.AsteroidWaiting = asteroid.NumWaiting()
	frame.AsteroidLaunched = asteroid.NumLaunched()
	frame.AsteroidLanded = asteroid.NumLanded()
	frame.DistinctGenomes = f.census.Distinct()
	return frame, summaries
}

// updateAnalytics runs full snapshots through the census and novelty model.
func (f *Feed) updateAnalytics() {
	for _, e := range f.supervisor.Engines() {
		snap := e.Snapshot()
		for _, lf := range snap.Lifeforms {
			f.census.Observe(lf.DNA)
			if _, err := f.novelty.Score(lf.DNA); err != nil {
				f.logger.Debug("novelty score failed", utils.Err(err))
			}
		}
	}
	if err := f.novelty.Retrain(); err != nil {
		f.logger.Debug("novelty retrain failed", utils.Err(err))
	}
}

func (f *Feed) broadcast(frame telemetryFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(f.clients, conn)
		}
	}
}

func (f *Feed) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.readLoop(conn, r.RemoteAddr)
	}()
}

// readLoop serves explicit snapshot requests from one client. Requests are
// token-bucket limited per client; a full snapshot is expensive enough that
// clients do not get to hammer the engines with it.
func (f *Feed) readLoop(conn *websocket.Conn, clientKey string) {
	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	for {
		var req struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				f.logger.Debug("feed client dropped", utils.Err(err))
			}
			return
		}

		if req.Type != "snapshot" {
			continue
		}
		if !f.limiter.Allow(clientKey) {
			conn.WriteJSON(map[string]string{"error": "rate limited"})
			continue
		}

		var records []lifeformJSON
		for _, e := range f.supervisor.Engines() {
			snap := e.Snapshot()
			for _, lf := range snap.Lifeforms {
				records = append(records, lifeformJSON{
					ID:     lf.ID,
					Gen:    lf.Gen,
					Alive:  lf.Alive,
					Energy: lf.Energy,
					DNA:    lf.DNA.Mnemonics(),
				})
			}
		}
		if err := conn.WriteJSON(records); err != nil {
			return
		}
	}
}
