// Package wire implements the basis packet framing: a fixed header
// followed by a payload, and the incremental receive state machine that
// reassembles one from a non-blocking socket (spec §3, §4.1).
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"encoding/binary"
	"fmt"
)

// DataType tags what a packet's payload means.
type DataType uint8

const (
	Invalid DataType = iota
	Hello            // reserved: future handshake advertising a publisher id
	Disconnect
	Schema
	Message
)

func (t DataType) String() string {
	switch t {
	case Invalid:
		return "INVALID"
	case Hello:
		return "HELLO"
	case Disconnect:
		return "DISCONNECT"
	case Schema:
		return "SCHEMA"
	case Message:
		return "MESSAGE"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// HeaderSize is the fixed, little-endian, on-wire header length.
const HeaderSize = 20

// SendTimeUnset is the header's send_time sentinel for "not set".
const SendTimeUnset = 0xFFFFFFFF

const magicVersion = 0 // byte 3 of the magic: current header version

var magic = [3]byte{'B', 'A', 'S'}

// Header is the fixed 20-byte packet header, parsed by byte offset (not
// reinterpreted in place) so the layout is independent of struct padding:
//
//	offset  size  field
//	0       3     magic "BAS"
//	3       1     version
//	4       1     data type
//	5       3     reserved, zero
//	8       4     payload length (data_size)
//	12      8     send time (monotonic ns; SendTimeUnset if unset)
type Header struct {
	Version  uint8
	DataType DataType
	DataSize uint32
	SendTime uint64
}

// ErrBadMagic is returned by ParseHeader when the magic bytes or version
// don't match — fatal to the connection (spec §4.1).
type ErrBadMagic struct {
	Got [4]byte
}

func (e *ErrBadMagic) Error() string {
	return fmt.Sprintf("wire: bad packet magic/version %v", e.Got)
}

// PutHeader encodes h into the first HeaderSize bytes of b.
func PutHeader(b []byte, h Header) {
	_ = b[HeaderSize-1] // bounds check hint
	copy(b[0:3], magic[:])
	b[3] = h.Version
	b[4] = byte(h.DataType)
	b[5], b[6], b[7] = 0, 0, 0
	binary.LittleEndian.PutUint32(b[8:12], h.DataSize)
	binary.LittleEndian.PutUint64(b[12:20], h.SendTime)
}

// ParseHeader decodes the first HeaderSize bytes of b into a Header.
func ParseHeader(b []byte) (Header, error) {
	var got [4]byte
	copy(got[:], b[0:4])
	if got[0] != magic[0] || got[1] != magic[1] || got[2] != magic[2] || got[3] != magicVersion {
		return Header{}, &ErrBadMagic{Got: got}
	}
	return Header{
		Version:  got[3],
		DataType: DataType(b[4]),
		DataSize: binary.LittleEndian.Uint32(b[8:12]),
		SendTime: binary.LittleEndian.Uint64(b[12:20]),
	}, nil
}
