// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package foxglove_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/bridge/foxglove"
	"github.com/basislabs/basis/meta"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerSendsServerInfoAndAdvertiseOnConnect(t *testing.T) {
	srv := foxglove.NewServer("test-bridge")
	srv.Advertise("/odom", meta.MessageTypeInfo{MCAPMessageEncoding: "json"}, meta.MessageSchema{SchemaName: "basis.Odom"})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts.URL)

	var info map[string]any
	require.NoError(t, conn.ReadJSON(&info))
	require.Equal(t, "serverInfo", info["op"])
	require.Equal(t, "test-bridge", info["name"])

	var adv map[string]any
	require.NoError(t, conn.ReadJSON(&adv))
	require.Equal(t, "advertise", adv["op"])
	channels := adv["channels"].([]any)
	require.Len(t, channels, 1)
	ch := channels[0].(map[string]any)
	require.Equal(t, "/odom", ch["topic"])
}

func TestServerStreamsMessageDataToSubscriber(t *testing.T) {
	srv := foxglove.NewServer("test-bridge")
	chID := srv.Advertise("/odom", meta.MessageTypeInfo{MCAPMessageEncoding: "json"}, meta.MessageSchema{SchemaName: "basis.Odom"})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn := dial(t, ts.URL)

	var info, adv map[string]any
	require.NoError(t, conn.ReadJSON(&info))
	require.NoError(t, conn.ReadJSON(&adv))

	sub := map[string]any{
		"op": "subscribe",
		"subscriptions": []map[string]any{
			{"id": 7, "channelId": chID},
		},
	}
	require.NoError(t, conn.WriteJSON(sub))

	// Give the read loop a moment to register the subscription.
	time.Sleep(50 * time.Millisecond)

	srv.Publish("/odom", []byte(`{"x":1}`), 123456789)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, msgType)
	require.Equal(t, byte(1), data[0])
	require.Equal(t, `{"x":1}`, string(data[13:]))
}

func TestServerPublishToUnknownTopicIsNoop(t *testing.T) {
	srv := foxglove.NewServer("test-bridge")
	require.NotPanics(t, func() {
		srv.Publish("/nope", []byte("x"), 0)
	})
}

func TestChannelJSONRoundTrips(t *testing.T) {
	ch := foxglove.Channel{ID: 3, Topic: "/t", EncodingName: "json"}
	b, err := json.Marshal(ch)
	require.NoError(t, err)
	require.Contains(t, string(b), `"topic":"/t"`)
}
