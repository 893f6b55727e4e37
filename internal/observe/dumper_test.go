package observe

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolsim/evol/internal/engine"
	"github.com/evolsim/evol/internal/params"
	"github.com/evolsim/evol/internal/sim"
)

func testSupervisor(t *testing.T) *engine.Supervisor {
	t.Helper()
	sim.SetGlobalBounds(8, 8)
	cfg := params.Default()
	cfg.NumEngines = 2
	cfg.Width = 8
	cfg.Height = 8
	cfg.StartingLifeforms = 4
	return engine.NewSupervisor(cfg, nil)
}

func TestDumper_WritesSchema(t *testing.T) {
	s := testSupervisor(t)
	dir := t.TempDir()

	d := NewDumper(s.Engines(), time.Hour, dir, nil)
	d.DumpOnce()

	data, err := os.ReadFile(filepath.Join(dir, DumpFilename))
	require.NoError(t, err)

	var records []lifeformJSON
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 8)

	for _, rec := range records {
		assert.NotZero(t, rec.ID)
		assert.True(t, rec.Alive)
		// Seeded lifeforms carry the single random-move instruction.
		assert.Equal(t, []string{"FINAL_MOVE_RANDOM"}, rec.DNA)
	}
}

func TestDumper_DNARoundTrip(t *testing.T) {
	s := testSupervisor(t)
	dir := t.TempDir()

	d := NewDumper(s.Engines(), time.Hour, dir, nil)
	d.DumpOnce()

	data, err := os.ReadFile(filepath.Join(dir, DumpFilename))
	require.NoError(t, err)

	var records []lifeformJSON
	require.NoError(t, json.Unmarshal(data, &records))

	for _, rec := range records {
		dna, err := sim.ParseDNA(rec.DNA)
		require.NoError(t, err)
		assert.Equal(t, sim.DNA{sim.OpFinalMoveRandom}, dna)
	}
}

func TestDumper_ArchivesPreviousDump(t *testing.T) {
	s := testSupervisor(t)
	dir := t.TempDir()

	d := NewDumper(s.Engines(), time.Hour, dir, nil)
	d.DumpOnce()

	first, err := os.ReadFile(filepath.Join(dir, DumpFilename))
	require.NoError(t, err)

	d.DumpOnce()

	f, err := os.Open(filepath.Join(dir, archiveFilename))
	require.NoError(t, err)
	defer f.Close()

	unpacked, err := io.ReadAll(brotli.NewReader(f))
	require.NoError(t, err)
	assert.Equal(t, first, unpacked)
}

func TestDumper_StartStopDumpsOnExit(t *testing.T) {
	s := testSupervisor(t)
	dir := t.TempDir()

	d := NewDumper(s.Engines(), time.Hour, dir, nil)
	d.Start()
	require.NoError(t, d.Stop())

	_, err := os.Stat(filepath.Join(dir, DumpFilename))
	assert.NoError(t, err)
}

func TestDumper_NoTempFilesLeftBehind(t *testing.T) {
	s := testSupervisor(t)
	dir := t.TempDir()

	d := NewDumper(s.Engines(), time.Hour, dir, nil)
	d.DumpOnce()
	d.DumpOnce()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Contains(t, []string{DumpFilename, archiveFilename}, e.Name())
	}
}
