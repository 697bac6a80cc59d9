// Package codec implements the block-document content codec: an encoded
// page payload is a JSON document envelope carrying a schema version and a
// flat list of block nodes. Legacy payloads (bare block arrays, missing
// versions, empty strings) are flagged for repair and re-encoded in the
// current format.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// CurrentSchemaVersion is the encoding version written by this codec.
// Version 1 payloads were bare block arrays without an envelope.
const CurrentSchemaVersion = 2

// document is the stored envelope shape.
type document struct {
	Type          string            `json:"type"`
	SchemaVersion int               `json:"schemaVersion"`
	Content       []json.RawMessage `json:"content"`
}

// Compile-time interface check: Codec must implement types.Codec.
var _ types.Codec = (*Codec)(nil)

// Codec encodes and decodes page content payloads.
type Codec struct{}

// New returns a content codec for the current schema version.
func New() *Codec {
	return &Codec{}
}

// EncodeFromDoc encodes a block list into a storable payload at the current
// schema version. A nil block list encodes as an empty document.
func (c *Codec) EncodeFromDoc(blocks []json.RawMessage) (types.Encoded, error) {
	if blocks == nil {
		blocks = []json.RawMessage{}
	}
	data, err := json.Marshal(document{
		Type:          "doc",
		SchemaVersion: CurrentSchemaVersion,
		Content:       blocks,
	})
	if err != nil {
		return types.Encoded{}, fmt.Errorf("encoding document: %w", err)
	}
	return types.Encoded{Content: string(data), SchemaVersion: CurrentSchemaVersion}, nil
}

// Decode parses a stored payload. Legacy and degenerate payloads are not
// errors: they decode to a usable document, flagged NeedsRepair, with
// Repaired holding the current-format re-encoding to write back. Only
// payloads that are not valid JSON at all fail.
func (c *Codec) Decode(stored string) (types.Decoded, error) {
	if stored == "" {
		return c.repaired(nil, "empty content")
	}

	var doc document
	if err := json.Unmarshal([]byte(stored), &doc); err == nil && doc.Type == "doc" {
		if doc.SchemaVersion == CurrentSchemaVersion {
			return types.Decoded{
				Blocks:        blocksOrEmpty(doc.Content),
				SchemaVersion: doc.SchemaVersion,
			}, nil
		}
		return c.repaired(doc.Content, fmt.Sprintf("schema version %d", doc.SchemaVersion))
	}

	// Legacy format: a bare array of block nodes.
	var blocks []json.RawMessage
	if err := json.Unmarshal([]byte(stored), &blocks); err == nil {
		return c.repaired(blocks, "bare block array")
	}

	return types.Decoded{}, fmt.Errorf("decoding content: not a document payload")
}

// NormalizeForStorage re-encodes arbitrary incoming content into the
// canonical current-format payload. Content an editor hands over may be a
// current document, a legacy payload, or empty; all normalize cleanly.
func (c *Codec) NormalizeForStorage(content string) (types.Encoded, error) {
	dec, err := c.Decode(content)
	if err != nil {
		return types.Encoded{}, err
	}
	return c.EncodeFromDoc(dec.Blocks)
}

// repaired builds a Decoded carrying the repaired re-encoding of blocks.
func (c *Codec) repaired(blocks []json.RawMessage, reason string) (types.Decoded, error) {
	enc, err := c.EncodeFromDoc(blocks)
	if err != nil {
		return types.Decoded{}, fmt.Errorf("repairing content: %w", err)
	}
	return types.Decoded{
		Blocks:        blocksOrEmpty(blocks),
		SchemaVersion: CurrentSchemaVersion,
		NeedsRepair:   true,
		RepairReason:  reason,
		Repaired:      enc.Content,
	}, nil
}

func blocksOrEmpty(blocks []json.RawMessage) []json.RawMessage {
	if blocks == nil {
		return []json.RawMessage{}
	}
	return blocks
}
