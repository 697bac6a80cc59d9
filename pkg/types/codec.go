package types

import "encoding/json"

// Decoded is the result of decoding a stored content payload. Blocks and
// SchemaVersion always describe a usable document: when the payload needed
// repair they reflect the repaired form, and Repaired holds its re-encoding
// so the caller can write it back.
type Decoded struct {
	Blocks        []json.RawMessage
	SchemaVersion int
	NeedsRepair   bool
	RepairReason  string
	Repaired      string
}

// Encoded pairs a storable content payload with its schema version.
type Encoded struct {
	Content       string
	SchemaVersion int
}

// Codec encodes, decodes, and normalizes document payloads. The core calls
// NormalizeForStorage before every content write and Decode whenever it must
// recombine document nodes (append, cross-page move).
type Codec interface {
	Decode(stored string) (Decoded, error)
	EncodeFromDoc(blocks []json.RawMessage) (Encoded, error)
	NormalizeForStorage(content string) (Encoded, error)
}
