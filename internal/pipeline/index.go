package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// indexFileName names the channel index artifact written next to the
// merged outputs.
const indexFileName = "channel_index.json"

// channelIndex accumulates the symbol/channel mapping observed during
// extraction. A symbol resolving to two different channels is an error.
type channelIndex struct {
	symbols  map[string]int64
	channels map[int64][]string
}

func newChannelIndex() *channelIndex {
	return &channelIndex{
		symbols:  make(map[string]int64),
		channels: make(map[int64][]string),
	}
}

// add records one source's resolved channel. A symbol seen on both feeds
// must resolve to the same channel each time.
func (ci *channelIndex) add(symbol string, channel int64) error {
	if prev, seen := ci.symbols[symbol]; seen {
		if prev != channel {
			return fmt.Errorf("symbol %s mapped to channels %d and %d", symbol, prev, channel)
		}
		return nil
	}
	ci.symbols[symbol] = channel
	ci.channels[channel] = append(ci.channels[channel], symbol)
	return nil
}

// indexDocument is the serialized form of the channel index.
type indexDocument struct {
	Channels map[string][]string `json:"channels"`
	Symbols  map[string]string   `json:"symbols"`
}

// write serializes the index as JSON at path.
func (ci *channelIndex) write(path string) error {
	doc := indexDocument{
		Channels: make(map[string][]string, len(ci.channels)),
		Symbols:  make(map[string]string, len(ci.symbols)),
	}
	for ch, symbols := range ci.channels {
		doc.Channels[strconv.FormatInt(ch, 10)] = symbols
	}
	for symbol, ch := range ci.symbols {
		doc.Symbols[symbol] = strconv.FormatInt(ch, 10)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode channel index: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write channel index: %w", err)
	}
	return nil
}
