// Package replay implements the MCAP replayer (spec §4.14): it opens a
// recorded file, reconstructs one raw publisher per recorded channel
// from the channel's own metadata (no compiled-in knowledge of the
// recorded types is needed), and replays messages in log-time order,
// pacing wall-clock delivery against each message's publish time.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package replay

import (
	stderrors "errors"
	"io"
	"os"
	"sort"
	"time"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/pkg/errors"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/serialize/jsonser"
	"github.com/basislabs/basis/transport"
	"github.com/basislabs/basis/wire"
)

// TimeMessage is published on /time once per replay tick, giving
// subscribers a monotonic replay clock plus a token that changes every
// time a run restarts (looping or re-running).
type TimeMessage struct {
	Nsecs    int64  `json:"nsecs"`
	RunToken uint64 `json:"run_token"`
}

type recordedMessage struct {
	channelID   uint16
	logTime     uint64
	publishTime uint64
	data        []byte
}

// Replayer drives one recorded file against a transport manager.
type Replayer struct {
	mgr        *transport.Manager
	file       *os.File
	reader     *mcap.Reader
	publishers map[uint16]*transport.RawPublisher
	timePub    *transport.Publisher[TimeMessage]
	messages   []recordedMessage
	loop       bool
	tick       time.Duration
	runToken   uint64
}

// Open opens path, enumerates its channels via the MCAP summary,
// advertises one RawPublisher per channel plus "/time", and loads the
// message index (spec §4.14).
func Open(path string, mgr *transport.Manager, loop bool) (*Replayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "replay: open %s", path)
	}
	reader, err := mcap.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "replay: new mcap reader")
	}
	info, err := reader.Info()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "replay: read summary")
	}

	r := &Replayer{
		mgr:        mgr,
		file:       f,
		reader:     reader,
		publishers: make(map[uint16]*transport.RawPublisher),
		loop:       loop,
		tick:       10 * time.Millisecond,
	}

	for channelID, ch := range info.Channels {
		schema := info.Schemas[ch.SchemaID]
		typeInfo := meta.MessageTypeInfo{
			SerializerName:      ch.Metadata["serializer"],
			Name:                schemaName(schema),
			MCAPMessageEncoding: ch.MessageEncoding,
			MCAPSchemaEncoding:  schemaEncoding(schema),
		}
		msgSchema := meta.MessageSchema{
			SerializerName: typeInfo.SerializerName,
			SchemaName:     typeInfo.Name,
			SchemaText:     ch.Metadata["readable_schema"],
			HashID:         ch.Metadata["hash_id"],
			EfficientBytes: schemaData(schema),
		}
		pub, err := transport.AdvertiseRaw(mgr, ch.Topic, typeInfo, msgSchema)
		if err != nil {
			nlog.Warningln("replay: advertise", ch.Topic, "failed:", err)
			continue
		}
		r.publishers[channelID] = pub
	}

	timePub, err := transport.Advertise[TimeMessage](
		mgr, "/time",
		meta.MessageTypeInfo{SerializerName: "json", Name: "basis.TimeMessage"},
		jsonser.New[TimeMessage]("basis.TimeMessage"),
	)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "replay: advertise /time")
	}
	r.timePub = timePub

	if err := r.loadMessages(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func schemaName(s *mcap.Schema) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func schemaEncoding(s *mcap.Schema) string {
	if s == nil {
		return ""
	}
	return s.Encoding
}

func schemaData(s *mcap.Schema) []byte {
	if s == nil {
		return nil
	}
	return s.Data
}

func (r *Replayer) loadMessages() error {
	it, err := r.reader.Messages()
	if err != nil {
		return errors.Wrap(err, "replay: open message iterator")
	}
	for {
		_, channel, msg, err := it.Next(nil)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "replay: read message")
		}
		r.messages = append(r.messages, recordedMessage{
			channelID:   channel.ID,
			logTime:     msg.LogTime,
			publishTime: msg.PublishTime,
			data:        msg.Data,
		})
	}
	sort.Slice(r.messages, func(i, j int) bool { return r.messages[i].logTime < r.messages[j].logTime })
	return nil
}

// Run replays every recorded message in log-time order, sleeping on a
// fixed tick until each message's publish-time offset has elapsed in
// wall-clock terms, publishing /time on every tick (spec §4.14). stop,
// if closed, ends the run (and any looping) early.
func (r *Replayer) Run(stop <-chan struct{}) error {
	for {
		r.runOnce(stop)
		if !r.loop {
			return nil
		}
		select {
		case <-stop:
			return nil
		default:
		}
	}
}

func (r *Replayer) runOnce(stop <-chan struct{}) {
	if len(r.messages) == 0 {
		return
	}
	r.runToken++
	token := r.runToken
	start := time.Now()
	base := r.messages[0].publishTime

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	idx := 0
	for idx < len(r.messages) {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		r.mgr.Update() // accept new subscriber connections before publishing
		elapsed := uint64(time.Since(start).Nanoseconds())
		r.timePub.Publish(&TimeMessage{Nsecs: int64(elapsed), RunToken: token})

		for idx < len(r.messages) && r.messages[idx].publishTime-base <= elapsed {
			m := r.messages[idx]
			if pub, ok := r.publishers[m.channelID]; ok {
				pkt := wire.NewPacket(wire.Message, uint32(len(m.data)))
				copy(pkt.MutablePayload(), m.data)
				pkt.SetSendTime(m.logTime)
				pub.PublishRaw(pkt)
			}
			idx++
		}
	}
}

func (r *Replayer) Close() error {
	for _, pub := range r.publishers {
		pub.Close()
	}
	if r.timePub != nil {
		r.timePub.Close()
	}
	return r.file.Close()
}
