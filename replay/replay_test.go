// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package replay_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/queue"
	"github.com/basislabs/basis/recorder"
	"github.com/basislabs/basis/replay"
	"github.com/basislabs/basis/transport"
	"github.com/basislabs/basis/wire"
)

func writeFixture(t *testing.T, path string) {
	t.Helper()
	rec, err := recorder.New(path, nil)
	require.NoError(t, err)

	typeInfo := meta.MessageTypeInfo{SerializerName: "json", Name: "test.Foo", MCAPMessageEncoding: "json", MCAPSchemaEncoding: "jsonschema"}
	schema := meta.MessageSchema{SerializerName: "json", SchemaName: "test.Foo", SchemaText: "{}"}
	schema.HashID = schema.SchemaID()

	require.NoError(t, rec.RegisterTopic("/foo", typeInfo, schema))
	require.NoError(t, rec.WriteMessage("/foo", []byte(`{"value":42}`), 0))
	require.NoError(t, rec.Close())
}

func TestReplayDeliversRecordedMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.mcap")
	writeFixture(t, path)

	overall := queue.NewOverall()
	mgr := transport.NewManager(false, overall)
	mgr.RegisterBackend(transport.NewTCPBackend(1 << 20))

	r, err := replay.Open(path, mgr, false)
	require.NoError(t, err)
	defer r.Close()

	mgr.Update()

	var mu sync.Mutex
	var payloads [][]byte
	sub := transport.SubscribeRaw(mgr, "/foo", func(pkt *wire.Packet) {
		mu.Lock()
		payloads = append(payloads, append([]byte(nil), pkt.Payload()...))
		mu.Unlock()
	})
	defer sub.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(stop)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(payloads)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(stop)
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 1)
	require.JSONEq(t, `{"value":42}`, string(payloads[0]))
}
