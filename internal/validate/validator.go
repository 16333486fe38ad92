package validate

import (
	"fmt"

	"github.com/rickgao/szse-eventlog/internal/model"
)

// EventSource yields the canonical events of one input stream in order.
type EventSource interface {
	// Next returns the next event, or io.EOF after the last one.
	Next() (model.Event, error)
}

// ChannelConsistencyError reports a source that spoke two channels.
type ChannelConsistencyError struct {
	Source string
	Seen   int64 // channel fixed by the source's first event
	Got    int64
}

func (e *ChannelConsistencyError) Error() string {
	return fmt.Sprintf("source %s: multiple ChannelNo values: %d vs %d", e.Source, e.Seen, e.Got)
}

// MonotonicityError reports a sequence number decrease within a source.
type MonotonicityError struct {
	Source string
	Last   int64
	Got    int64
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("source %s: stream not monotonic: seq %d < %d", e.Source, e.Got, e.Last)
}

// Validator passes one source's events through unchanged while checking the
// channel and sequence invariants. Single-owner state; never shared.
type Validator struct {
	src  EventSource
	name string

	seenChannel int64
	hasChannel  bool
	lastSeq     int64
	events      int64
}

// New wraps src. name identifies the source in errors.
func New(name string, src EventSource) *Validator {
	return &Validator{src: src, name: name}
}

// Next returns the next validated event. The first failed check wins; after
// an error the validator must not be advanced again.
func (v *Validator) Next() (model.Event, error) {
	e, err := v.src.Next()
	if err != nil {
		return model.Event{}, err
	}

	if !v.hasChannel {
		v.seenChannel = e.Channel
		v.hasChannel = true
	} else {
		if e.Channel != v.seenChannel {
			return model.Event{}, &ChannelConsistencyError{Source: v.name, Seen: v.seenChannel, Got: e.Channel}
		}
		if e.Sequence < v.lastSeq {
			return model.Event{}, &MonotonicityError{Source: v.name, Last: v.lastSeq, Got: e.Sequence}
		}
	}

	v.lastSeq = e.Sequence
	v.events++
	return e, nil
}

// Channel returns the channel the source resolved to. ok is false when the
// source produced no events (empty or fully filtered).
func (v *Validator) Channel() (channel int64, ok bool) {
	return v.seenChannel, v.hasChannel
}

// Events returns how many events passed validation so far.
func (v *Validator) Events() int64 { return v.events }
