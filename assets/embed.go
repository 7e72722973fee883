// Package assets embeds files shipped with the binary.
package assets

import _ "embed"

// Presets is the built-in batch preset list (YAML, batch.textures).
//
//go:embed presets.yaml
var Presets []byte
