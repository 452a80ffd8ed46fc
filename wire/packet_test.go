// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package wire_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/wire"
)

func TestHeaderRoundtrip(t *testing.T) {
	hdr := wire.Header{Version: 0, DataType: wire.Message, DataSize: 42, SendTime: 12345}
	b := make([]byte, wire.HeaderSize)
	wire.PutHeader(b, hdr)

	got, err := wire.ParseHeader(b)
	require.NoError(t, err)
	require.Equal(t, hdr, got)
}

func TestParseHeaderBadMagic(t *testing.T) {
	b := make([]byte, wire.HeaderSize)
	_, err := wire.ParseHeader(b)
	require.Error(t, err)
	var bad *wire.ErrBadMagic
	require.ErrorAs(t, err, &bad)
}

// TestFramingRoundtripArbitraryChunking exercises the universal invariant
// from spec §8.1: any payload, fed to the incremental receiver in any
// chunking, yields exactly one packet with matching header and payload.
func TestFramingRoundtripArbitraryChunking(t *testing.T) {
	for _, n := range []int{0, 1, 7, 256, 4096} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i)
		}
		sent := wire.NewPacket(wire.Message, uint32(n))
		copy(sent.MutablePayload(), payload)
		stream := sent.Bytes()

		recv := wire.NewIncompleteMessagePacket(0)
		off := 0
		var done bool
		var err error
		rnd := rand.New(rand.NewSource(int64(n)))
		for off < len(stream) {
			buf := recv.CurrentBuffer()
			chunk := 1 + rnd.Intn(max(1, len(buf)))
			if off+chunk > len(stream) {
				chunk = len(stream) - off
			}
			nn := copy(buf, stream[off:off+chunk])
			off += nn
			done, err = recv.AdvanceCounter(nn)
			require.NoError(t, err)
			if done {
				break
			}
		}
		require.True(t, done, "payload size %d", n)
		got := recv.Take()
		require.Equal(t, sent.Header(), got.Header())
		require.Equal(t, payload, got.Payload())
	}
}

func TestAdvanceCounterRejectsOversizedPayload(t *testing.T) {
	sent := wire.NewPacket(wire.Message, 100)
	recv := wire.NewIncompleteMessagePacket(10)
	stream := sent.Bytes()
	_, err := recv.AdvanceCounter(copy(recv.CurrentBuffer(), stream[:wire.HeaderSize]))
	require.Error(t, err)
	var tooLarge *wire.ErrPayloadTooLarge
	require.ErrorAs(t, err, &tooLarge)
}
