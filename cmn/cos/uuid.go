// Package cos provides common low-level types and utilities shared by every
// basis process (coordinator, transport manager, unit runtime, launcher).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"
)

// GenPublisherID returns a 128-bit time-based (RFC 4122 version 1) UUID,
// unique process-wide and stable for the publisher's lifetime (spec §3).
func GenPublisherID() (uuid.UUID, error) { return uuid.NewUUID() }

func IsValidPublisherID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// HashSchema computes the MessageSchema.hash_id: a stable, short digest of
// the schema text plus any efficient-encoding bytes, used to dedupe schemas
// the recorder and coordinator have already seen (spec §3, §4.10, §4.13).
func HashSchema(serializer, schemaName, schemaText string, efficientBytes []byte) string {
	h := xxhash.New64()
	h.Write([]byte(serializer)) //nolint:errcheck // xxhash.Write never errors
	h.Write([]byte{':'})
	h.Write([]byte(schemaName))
	h.Write([]byte{':'})
	h.Write([]byte(schemaText))
	if len(efficientBytes) > 0 {
		h.Write([]byte{':'})
		h.Write(efficientBytes)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
