// Package coordinator implements the well-known-port topology broker (spec
// §4.10-§4.11): every process's transport manager reports its owned
// publishers and exchanges message schemas through it, and it broadcasts
// the aggregated NetworkInfo back to every connected client.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package coordinator

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/wire"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientToCoordinatorMessage is the client->coordinator envelope. Exactly
// one field is populated per message — a sum type expressed as pointers
// plus a slice, same shape as the wire protocol it replaces.
type ClientToCoordinatorMessage struct {
	TransportManagerInfo *meta.TransportManagerInfo `json:"transport_manager_info,omitempty"`
	Schemas              []meta.MessageSchema       `json:"schemas,omitempty"`
	RequestSchemas       []string                   `json:"request_schemas,omitempty"`
}

// CoordinatorMessage is the coordinator->client envelope.
type CoordinatorMessage struct {
	NetworkInfo *meta.NetworkInfo    `json:"network_info,omitempty"`
	Schemas     []meta.MessageSchema `json:"schemas,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func encodePacket(v any) (*wire.Packet, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: encode")
	}
	pkt := wire.NewPacket(wire.Message, uint32(len(b)))
	copy(pkt.MutablePayload(), b)
	return pkt, nil
}

func decodeClientMessage(pkt *wire.Packet) (*ClientToCoordinatorMessage, error) {
	var msg ClientToCoordinatorMessage
	if err := json.Unmarshal(pkt.Payload(), &msg); err != nil {
		return nil, errors.Wrap(err, "coordinator: decode client message")
	}
	return &msg, nil
}

func decodeCoordinatorMessage(pkt *wire.Packet) (*CoordinatorMessage, error) {
	var msg CoordinatorMessage
	if err := json.Unmarshal(pkt.Payload(), &msg); err != nil {
		return nil, errors.Wrap(err, "coordinator: decode coordinator message")
	}
	return &msg, nil
}
