package pipeline

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rickgao/szse-eventlog/internal/config"
	"github.com/rickgao/szse-eventlog/internal/eventcsv"
	"github.com/rickgao/szse-eventlog/internal/model"
)

const orderHeader = "ChannelNo,ApplSeqNum,Side,Price,OrderQty,OrdType,TransactTime,SendingTime\n"
const tickHeader = "ChannelNo,ApplSeqNum,BidApplSeqNum,OfferApplSeqNum,Price,Qty,Amt,ExecType,TransactTime,SendingTime\n"

func orderRow(channel, seq int64) string {
	return join(channel, seq, "1,10.50,200,2,20230601091500010,20230601091500020")
}

func tickRow(channel, seq int64, execType string) string {
	return join(channel, seq, "1,2,10.50,100,1050.00,"+execType+",20230601093000010,20230601093000020")
}

func join(channel, seq int64, rest string) string {
	return strconv.FormatInt(channel, 10) + "," + strconv.FormatInt(seq, 10) + "," + rest + "\n"
}

// writeDirArchive materializes an archive directory of raw CSV files.
func writeDirArchive(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// writeZipArchive materializes an archive zip of raw CSV files.
func writeZipArchive(t *testing.T, path string, files map[string]string) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readEvents(t *testing.T, path string) []model.Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	r, err := eventcsv.NewReader(path, f)
	if err != nil {
		t.Fatalf("reader %s: %v", path, err)
	}
	var out []model.Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		out = append(out, e)
	}
}

func testConfig(t *testing.T, orderArchive, tickArchive string) *config.MergerConfig {
	t.Helper()
	cfg := &config.MergerConfig{
		OrderArchive: orderArchive,
		TickArchive:  tickArchive,
		WorkDir:      t.TempDir(),
	}
	return cfg
}

func finalize(t *testing.T, cfg *config.MergerConfig) *config.MergerConfig {
	t.Helper()
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestRunCombined(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 1) + orderRow(2011, 5),
		"000002.csv": orderHeader + orderRow(2013, 2),
	})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{
		"000001.csv": tickHeader + tickRow(2011, 3, "F") + tickRow(2011, 4, "4"),
	})

	out := filepath.Join(base, "out", "merged.csv")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = out
	finalize(t, cfg)

	stats, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.OrderSources != 2 || stats.TickSources != 1 {
		t.Errorf("sources = %d order, %d tick; want 2, 1", stats.OrderSources, stats.TickSources)
	}
	if stats.Events != 5 {
		t.Errorf("events = %d, want 5", stats.Events)
	}
	if stats.PerChannel[2011] != 4 || stats.PerChannel[2013] != 1 {
		t.Errorf("per-channel = %v, want 2011:4 2013:1", stats.PerChannel)
	}

	events := readEvents(t, out)
	if len(events) != 5 {
		t.Fatalf("merged %d events, want 5", len(events))
	}
	wantKeys := [][2]int64{{2011, 1}, {2011, 3}, {2011, 4}, {2011, 5}, {2013, 2}}
	wantKinds := []model.Kind{
		model.KindOrder, model.KindTrade, model.KindCancel, model.KindOrder, model.KindOrder,
	}
	for i, e := range events {
		if got := [2]int64{e.Channel, e.Sequence}; got != wantKeys[i] {
			t.Errorf("event %d key = %v, want %v", i, got, wantKeys[i])
		}
		if e.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %s, want %s", i, e.Kind, wantKinds[i])
		}
	}
}

func TestRunPerChannelFromZip(t *testing.T) {
	base := t.TempDir()
	orders := writeZipArchive(t, filepath.Join(base, "orders.zip"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 1),
		"000002.csv": orderHeader + orderRow(2013, 1),
	})
	ticks := writeZipArchive(t, filepath.Join(base, "ticks.zip"), map[string]string{
		"000001.csv": tickHeader + tickRow(2011, 2, "F"),
	})

	outDir := filepath.Join(base, "channels")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Dir = outDir
	finalize(t, cfg)

	stats, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(stats.Artifacts) != 2 {
		t.Fatalf("artifacts = %v, want 2", stats.Artifacts)
	}

	if got := readEvents(t, filepath.Join(outDir, "channel_2011.csv")); len(got) != 2 {
		t.Errorf("channel_2011 holds %d events, want 2", len(got))
	}
	if got := readEvents(t, filepath.Join(outDir, "channel_2013.csv")); len(got) != 1 {
		t.Errorf("channel_2013 holds %d events, want 1", len(got))
	}

	// The channel index lands next to the artifacts.
	data, err := os.ReadFile(filepath.Join(outDir, indexFileName))
	if err != nil {
		t.Fatalf("channel index: %v", err)
	}
	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("channel index decode: %v", err)
	}
	if doc.Symbols["000001"] != "2011" || doc.Symbols["000002"] != "2013" {
		t.Errorf("index symbols = %v", doc.Symbols)
	}
	if got := doc.Channels["2011"]; len(got) != 1 || got[0] != "000001" {
		t.Errorf("index channel 2011 = %v, want [000001]", got)
	}
}

func TestRunChannelFilter(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 1) + orderRow(2011, 2),
		"000002.csv": orderHeader + orderRow(2013, 1),
	})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{})

	out := filepath.Join(base, "merged.csv")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = out
	ch := int64(2011)
	cfg.Channel = &ch
	finalize(t, cfg)

	stats, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Events != 2 {
		t.Errorf("events = %d, want 2", stats.Events)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (fully filtered source)", stats.Skipped)
	}
	for _, e := range readEvents(t, out) {
		if e.Channel != 2011 {
			t.Errorf("event channel = %d, want 2011", e.Channel)
		}
	}
}

func TestRunSymbolRegexAndLimit(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 1),
		"000002.csv": orderHeader + orderRow(2011, 2),
		"300001.csv": orderHeader + orderRow(2021, 1),
	})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{})

	out := filepath.Join(base, "merged.csv")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = out
	cfg.SymbolRegex = "^000"
	cfg.LimitFiles = 1
	finalize(t, cfg)

	stats, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.OrderSources != 1 {
		t.Errorf("order sources = %d, want 1 (regex then limit)", stats.OrderSources)
	}
	events := readEvents(t, out)
	if len(events) != 1 || events[0].Symbol != "000001" {
		t.Errorf("events = %v, want one event from 000001", events)
	}
}

func TestRunSkipsZeroByteSource(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 1),
		"000002.csv": "",
	})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{})

	out := filepath.Join(base, "merged.csv")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = out
	finalize(t, cfg)

	stats, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed on a zero-byte source: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
	if got := readEvents(t, out); len(got) != 1 || got[0].Symbol != "000001" {
		t.Errorf("events = %v, want one event from 000001", got)
	}
}

func TestRunNoEvents(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{})

	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = filepath.Join(base, "merged.csv")
	finalize(t, cfg)

	if _, err := Run(context.Background(), cfg, nil); err != ErrNoEvents {
		t.Errorf("Run = %v, want ErrNoEvents", err)
	}
}

func TestRunMonotonicityFailureAborts(t *testing.T) {
	base := t.TempDir()
	orders := writeDirArchive(t, filepath.Join(base, "orders"), map[string]string{
		"000001.csv": orderHeader + orderRow(2011, 5) + orderRow(2011, 3),
	})
	ticks := writeDirArchive(t, filepath.Join(base, "ticks"), map[string]string{})

	out := filepath.Join(base, "merged.csv")
	cfg := testConfig(t, orders, ticks)
	cfg.Output.Path = out
	finalize(t, cfg)

	if _, err := Run(context.Background(), cfg, nil); err == nil {
		t.Fatal("Run succeeded on a non-monotonic source")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("failed run left an output artifact, stat err = %v", err)
	}
}

func TestChannelIndexConflict(t *testing.T) {
	ci := newChannelIndex()
	if err := ci.add("000001", 2011); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := ci.add("000001", 2011); err != nil {
		t.Fatalf("same-channel re-add: %v", err)
	}
	if err := ci.add("000001", 2013); err == nil {
		t.Error("conflicting channel accepted")
	}
}
