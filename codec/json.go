package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - For a run manifest (small, human-inspectable metadata), JSON is stable
//   and portable.
// - If you need custom encoding, implement Codec and pass it to
//   manifest.NewStore.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: The codec name is not stored in the files this module writes, so
// manifests written with one codec are read back with whatever codec the
// reading Store is configured with.
var Default Codec = GoJSON{}
