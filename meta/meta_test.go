// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package meta_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/meta"
)

func TestSchemaID(t *testing.T) {
	s := meta.MessageSchema{SerializerName: "protobuf", SchemaName: "example.Foo"}
	require.Equal(t, "protobuf:example.Foo", s.SchemaID())
}

func TestPublisherInfoHasTransport(t *testing.T) {
	p := meta.PublisherInfo{
		ID:    uuid.New(),
		Topic: "/foo",
		Transports: map[string]string{
			meta.TransportInproc: "",
			meta.TransportTCP:    "41527",
		},
	}
	require.True(t, p.HasTransport(meta.TransportInproc))
	require.Equal(t, "41527", p.Endpoint(meta.TransportTCP))
	require.False(t, p.HasTransport("unix"))
}

func TestTransportManagerInfoCloneIsDeep(t *testing.T) {
	orig := meta.TransportManagerInfo{
		Publishers: []meta.PublisherInfo{{
			ID:         uuid.New(),
			Topic:      "/foo",
			Transports: map[string]string{meta.TransportTCP: "1"},
		}},
	}
	clone := orig.Clone()
	clone.Publishers[0].Transports[meta.TransportTCP] = "2"
	require.Equal(t, "1", orig.Publishers[0].Transports[meta.TransportTCP])
}

func TestNetworkInfoMergeConcatenates(t *testing.T) {
	var n meta.NetworkInfo
	p1 := meta.PublisherInfo{ID: uuid.New(), Topic: "/foo"}
	p2 := meta.PublisherInfo{ID: uuid.New(), Topic: "/foo"}
	n.Merge("/foo", []meta.PublisherInfo{p1})
	n.Merge("/foo", []meta.PublisherInfo{p2})
	require.Len(t, n.Topics["/foo"], 2)
}
