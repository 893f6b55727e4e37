package observe

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sony/gobreaker"

	"github.com/evolsim/evol/internal/engine"
	"github.com/evolsim/evol/internal/utils"
)

// DumpFilename is the JSON snapshot the dumper maintains.
const DumpFilename = "lifeform-dump.json"

// archiveFilename receives the previous dump, brotli-compressed, each time
// a new one is written.
const archiveFilename = "lifeform-dump.json.1.br"

// lifeformJSON is the wire form of one lifeform in the dump.
type lifeformJSON struct {
	ID     uint64   `json:"id"`
	Gen    uint64   `json:"gen"`
	Alive  bool     `json:"alive"`
	Energy float64  `json:"energy"`
	DNA    []string `json:"dna"`
}

// Dumper periodically serializes the lifeforms of every engine to a JSON
// file. It locks one engine at a time, copies, releases, and only then
// formats and writes. File writes run behind a circuit breaker so a sick
// disk sheds dumps instead of stalling the observer thread.
type Dumper struct {
	engines  []*engine.Engine
	interval time.Duration
	dir      string
	logger   *utils.Logger
	breaker  *gobreaker.CircuitBreaker

	done chan struct{}
	wg   sync.WaitGroup
}

// NewDumper builds a dumper over the given engines writing into dir.
func NewDumper(engines []*engine.Engine, interval time.Duration, dir string, logger *utils.Logger) *Dumper {
	if logger == nil {
		logger = utils.DefaultLogger("dumper")
	}
	return &Dumper{
		engines:  engines,
		interval: interval,
		dir:      dir,
		logger:   logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "dump-writer",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		done: make(chan struct{}),
	}
}

// Start launches the dump loop on its own goroutine.
func (d *Dumper) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
}

// Stop tells the dump loop to exit and waits for the final dump to finish.
func (d *Dumper) Stop() error {
	close(d.done)
	d.wg.Wait()
	return nil
}

func (d *Dumper) loop() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.DumpOnce()
		case <-d.done:
			// Final data dump before we exit
			d.DumpOnce()
			return
		}
	}
}

// DumpOnce snapshots every engine and rewrites the dump file atomically.
func (d *Dumper) DumpOnce() {
	var records []lifeformJSON
	for _, e := range d.engines {
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

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		d.logger.Error("dump serialization failed", utils.Err(err))
		return
	}

	if _, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.write(data)
	}); err != nil {
		d.logger.Warn("dump write skipped", utils.Err(err))
	}
}

// write archives the previous dump and replaces it with data via a temp
// file and rename, so readers never observe a torn dump.
func (d *Dumper) write(data []byte) error {
	path := filepath.Join(d.dir, DumpFilename)

	if prev, err := os.ReadFile(path); err == nil {
		if err := d.archive(prev); err != nil {
			d.logger.Warn("dump archive failed", utils.Err(err))
		}
	}

	tmp, err := os.CreateTemp(d.dir, DumpFilename+".tmp-*")
	if err != nil {
		return utils.WrapError(err, "create dump temp file")
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return utils.WrapError(err, "write dump")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return utils.WrapError(err, "close dump temp file")
	}
	return os.Rename(name, path)
}

func (d *Dumper) archive(prev []byte) error {
	f, err := os.Create(filepath.Join(d.dir, archiveFilename))
	if err != nil {
		return err
	}
	w := brotli.NewWriter(f)
	if _, err := w.Write(prev); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
