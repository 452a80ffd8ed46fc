// Package recorder implements the synchronous MCAP recorder (spec
// §4.13): every advertised topic that matches a configured pattern gets
// one MCAP channel (and, deduped by schema hash, one MCAP schema); every
// other topic is recorded as skipped, so later WriteMessage calls for it
// are silently dropped instead of erroring.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package recorder

import (
	"os"
	"regexp"
	"sync"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/pkg/errors"

	"github.com/basislabs/basis/meta"
)

// Recorder wraps one MCAP file. Every method takes r.mu, so concurrent
// calls are serialized; AsyncRecorder is the multi-producer front end
// that keeps the file writes off the producers' goroutines.
type Recorder struct {
	mu            sync.Mutex
	topicPatterns []*regexp.Regexp

	file *os.File
	w    *mcap.Writer

	channels      map[string]uint16 // topic -> channel id (only matched topics)
	skipped       map[string]struct{}
	schemaIDs     map[string]uint16 // schema hash id -> mcap schema id
	nextChannelID uint16
	nextSchemaID  uint16
	seq           map[uint16]uint32
}

// New opens name for writing and compiles topicPatterns; an empty
// pattern list matches every topic (spec's configured-regex filter with
// no filters configured records everything).
func New(name string, topicPatterns []string) (*Recorder, error) {
	patterns := make([]*regexp.Regexp, 0, len(topicPatterns))
	for _, p := range topicPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "recorder: invalid topic pattern %q", p)
		}
		patterns = append(patterns, re)
	}
	r := &Recorder{topicPatterns: patterns}
	if err := r.open(name); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) open(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "recorder: create %s", name)
	}
	w, err := mcap.NewWriter(f, &mcap.WriterOptions{
		Chunked:    true,
		ChunkSize:  1 << 20,
		Compression: mcap.CompressionLZ4,
		IncludeCRC: true,
	})
	if err != nil {
		f.Close()
		return errors.Wrap(err, "recorder: new mcap writer")
	}
	if err := w.WriteHeader(&mcap.Header{Profile: "basis", Library: "basis-recorder"}); err != nil {
		f.Close()
		return errors.Wrap(err, "recorder: write header")
	}

	r.file = f
	r.w = w
	r.channels = make(map[string]uint16)
	r.skipped = make(map[string]struct{})
	r.schemaIDs = make(map[string]uint16)
	r.seq = make(map[uint16]uint32)
	r.nextChannelID = 0
	r.nextSchemaID = 0
	return nil
}

func (r *Recorder) matches(topic string) bool {
	if len(r.topicPatterns) == 0 {
		return true
	}
	for _, re := range r.topicPatterns {
		if re.MatchString(topic) {
			return true
		}
	}
	return false
}

// RegisterTopic matches topic against the configured patterns; if
// unmatched, future WriteMessage calls for it are recorded as no-ops.
// Otherwise it registers (deduping by schema hash) the MCAP schema and
// creates a channel tagging serializer in its metadata (spec §4.13).
func (r *Recorder) RegisterTopic(topic string, typeInfo meta.MessageTypeInfo, schema meta.MessageSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.matches(topic) {
		r.skipped[topic] = struct{}{}
		return nil
	}

	schemaID, ok := r.schemaIDs[schema.HashID]
	if !ok {
		r.nextSchemaID++
		schemaID = r.nextSchemaID
		mcapSchema := &mcap.Schema{
			ID:       schemaID,
			Name:     typeInfo.Name,
			Encoding: typeInfo.MCAPSchemaEncoding,
			Data:     schema.EfficientBytes,
		}
		if err := r.w.WriteSchema(mcapSchema); err != nil {
			return errors.Wrap(err, "recorder: write schema")
		}
		r.schemaIDs[schema.HashID] = schemaID
	}

	r.nextChannelID++
	channelID := r.nextChannelID
	channel := &mcap.Channel{
		ID:              channelID,
		SchemaID:        schemaID,
		Topic:           topic,
		MessageEncoding: typeInfo.MCAPMessageEncoding,
		Metadata: map[string]string{
			"serializer":      typeInfo.SerializerName,
			"hash_id":         schema.HashID,
			"readable_schema": schema.SchemaText,
		},
	}
	if err := r.w.WriteChannel(channel); err != nil {
		return errors.Wrap(err, "recorder: write channel")
	}
	r.channels[topic] = channelID
	return nil
}

// WriteMessage writes payload under topic's channel at logTime (both log
// and publish time, since the recorder has no separate publish-time
// source). Topics never registered, or registered but filtered out, are
// skipped silently (spec §4.13).
func (r *Recorder) WriteMessage(topic string, payload []byte, logTime int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channelID, ok := r.channels[topic]
	if !ok {
		return nil
	}

	seq := r.seq[channelID]
	r.seq[channelID] = seq + 1

	msg := &mcap.Message{
		ChannelID:   channelID,
		Sequence:    seq,
		LogTime:     uint64(logTime),
		PublishTime: uint64(logTime),
		Data:        payload,
	}
	if err := r.w.WriteMessage(msg); err != nil {
		return errors.Wrap(err, "recorder: write message")
	}
	return nil
}

// Split finishes the current file and starts newName with fresh
// channel/schema tables (spec §4.13): topics must be re-registered
// against the new file.
func (r *Recorder) Split(newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.closeLocked(); err != nil {
		return err
	}
	return r.open(newName)
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if r.w == nil {
		return nil
	}
	werr := r.w.Close()
	ferr := r.file.Close()
	r.w, r.file = nil, nil
	if werr != nil {
		return errors.Wrap(werr, "recorder: close mcap writer")
	}
	if ferr != nil {
		return errors.Wrap(ferr, "recorder: close file")
	}
	return nil
}
