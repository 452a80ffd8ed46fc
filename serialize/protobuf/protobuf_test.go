// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package protobuf_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/basislabs/basis/serialize/protobuf"
)

func TestInt32ValueRoundtrip(t *testing.T) {
	ser := protobuf.New[wrapperspb.Int32Value]()
	msg := &wrapperspb.Int32Value{Value: 42}

	buf := make([]byte, ser.SerializedSize(msg))
	require.NoError(t, ser.SerializeToSpan(msg, buf))

	got, err := ser.DeserializeFromSpan(buf)
	require.NoError(t, err)
	require.Equal(t, int32(42), got.Value)
}

func TestInt64ValueTypeName(t *testing.T) {
	ser := protobuf.New[wrapperspb.Int64Value]()
	require.Equal(t, "google.protobuf.Int64Value", ser.TypeName())
	require.Equal(t, "protobuf", ser.Name())
}

func TestEfficientBytesNonEmpty(t *testing.T) {
	ser := protobuf.New[wrapperspb.Int32Value]()
	require.NotEmpty(t, ser.EfficientBytes())
}
