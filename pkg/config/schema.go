package config

import (
	_ "embed"
)

// schemaSource is the CUE schema every configuration is unified with
//
//go:embed schema.cue
var schemaSource []byte

// schemaPath is the definition a configuration must satisfy
const schemaPath = "#Config"
