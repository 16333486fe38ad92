package eventcsv

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rickgao/szse-eventlog/internal/model"
)

func TestHeaderShape(t *testing.T) {
	if len(Header) != 16 {
		t.Fatalf("len(Header) = %d, want 16", len(Header))
	}
	if Header[0] != "ChannelNo" || Header[1] != "ApplSeqNum" {
		t.Errorf("Header starts %v, want ChannelNo,ApplSeqNum", Header[:2])
	}
	if !strings.HasPrefix(HeaderLine, "ChannelNo,ApplSeqNum,Event,Symbol,") {
		t.Errorf("HeaderLine = %q", HeaderLine)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_000001.events.csv")

	events := []model.Event{
		{
			Channel: 2011, Sequence: 1, Kind: model.KindOrder, Symbol: "000001",
			OrderID: "1", Side: "1", Price: "10.550", Qty: "200", OrdType: "2",
			TransactTime: "20240102091500010", SendingTime: "20240102091500020",
			Source: model.FamilyOrder,
		},
		{
			Channel: 2011, Sequence: 2, Kind: model.KindTrade, Symbol: "000001",
			BidOrderID: "1", OfferOrderID: "7", Price: "10.550", Qty: "100",
			Amt: "1055.000", ExecType: "F",
			TransactTime: "20240102091500030", SendingTime: "20240102091500040",
			Source: model.FamilyTick,
		},
	}

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, e := range events {
		if err := w.WriteEvent(e); err != nil {
			t.Fatalf("WriteEvent failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r, err := NewReader(path, f)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	for i, want := range events {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("event %d = %+v, want %+v", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last = %v, want io.EOF", err)
	}
}

func TestRawReader(t *testing.T) {
	content := HeaderLine + "\n" +
		"2011,5,ORDER,000001,5,,,1,10.550,200,,2,,20240102091500010,20240102091500020,order\n" +
		"2011,6,TRADE,000001,,5,9,,10.550,100,1055.000,,F,20240102091500030,20240102091500040,tick\n"

	r, err := NewRawReader("mem", strings.NewReader(content))
	if err != nil {
		t.Fatalf("NewRawReader failed: %v", err)
	}

	key, line, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if key != (model.Key{Channel: 2011, Sequence: 5}) {
		t.Errorf("key = %v, want {2011 5}", key)
	}
	if !strings.HasPrefix(line, "2011,5,ORDER,") {
		t.Errorf("line = %q", line)
	}

	key, _, err = r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if key != (model.Key{Channel: 2011, Sequence: 6}) {
		t.Errorf("key = %v, want {2011 6}", key)
	}

	if _, _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last = %v, want io.EOF", err)
	}
}

func TestRawReaderRejectsBadHeader(t *testing.T) {
	_, err := NewRawReader("mem", strings.NewReader("Nope,Header\n1,2\n"))
	if err == nil {
		t.Fatal("NewRawReader = nil error, want header error")
	}
	if !strings.Contains(err.Error(), "unexpected header") {
		t.Errorf("error = %q, want unexpected header", err)
	}
}

func TestRawReaderRejectsBadKey(t *testing.T) {
	content := HeaderLine + "\n" + "x,1,ORDER,000001,,,,,,,,,,,,order\n"
	r, err := NewRawReader("mem", strings.NewReader(content))
	if err != nil {
		t.Fatalf("NewRawReader failed: %v", err)
	}
	if _, _, err := r.Next(); err == nil {
		t.Fatal("Next = nil error, want invalid ChannelNo")
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("mem", []string{"1", "2"}); err == nil {
		t.Error("Decode(short record) = nil error, want error")
	}

	record := Encode(model.Event{Channel: 1, Sequence: 2})
	record[1] = "abc"
	if _, err := Decode("mem", record); err == nil {
		t.Error("Decode(bad seq) = nil error, want error")
	}
}
