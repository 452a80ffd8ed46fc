// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package unit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/serialize/jsonser"
	basissync "github.com/basislabs/basis/sync"
	"github.com/basislabs/basis/transport"
	"github.com/basislabs/basis/unit"
)

type inMsg struct{ N int }
type sumOutput struct{ Total int }

func TestHandlerSubscriberRoutesOutputToPublisher(t *testing.T) {
	u := unit.New(true, nil)
	ser := jsonser.New[inMsg]("test.In")
	outSer := jsonser.New[sumOutput]("test.Sum")

	pub, err := transport.Advertise(u.Manager, "/out", meta.MessageTypeInfo{SerializerName: "json", Name: "test.Sum"}, outSer)
	require.NoError(t, err)
	defer pub.Close()

	route := func(out sumOutput) { pub.Publish(&out) }
	callback := unit.HandlerSubscriber(func(_ int64, a *inMsg) sumOutput {
		return sumOutput{Total: a.N * 2}
	}, route)

	var mu sync.Mutex
	var got []int
	resultSub := transport.Subscribe(u.Manager, "/out", 0, outSer, func(o *sumOutput) {
		mu.Lock()
		got = append(got, o.Total)
		mu.Unlock()
	})
	defer resultSub.Close()

	inSub := transport.Subscribe(u.Manager, "/in", 0, ser, callback)
	defer inSub.Close()

	inPub, err := transport.Advertise(u.Manager, "/in", meta.MessageTypeInfo{SerializerName: "json", Name: "test.In"}, ser)
	require.NoError(t, err)
	defer inPub.Close()

	inPub.Publish(&inMsg{N: 21})

	stop := make(chan struct{})
	defer close(stop)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		u.Update(10*time.Millisecond, stop)
		mu.Lock()
		done := len(got) > 0
		mu.Unlock()
		if done {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{42}, got)
}

func TestHandler2WithSynchronizerRoutesOutput(t *testing.T) {
	var mu sync.Mutex
	var totals []int

	route := func(out sumOutput) {
		mu.Lock()
		totals = append(totals, out.Total)
		mu.Unlock()
	}
	cb := unit.Handler2(func(_ int64, a, b *inMsg) sumOutput {
		return sumOutput{Total: a.N + b.N}
	}, route)

	synchronizer := basissync.NewAll2[inMsg, inMsg](basissync.Default, basissync.Default, cb)
	synchronizer.OnA(&inMsg{N: 1})
	synchronizer.OnB(&inMsg{N: 2})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{3}, totals)
}
