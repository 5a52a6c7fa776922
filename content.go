package nutrition

import "embed"

//go:embed etc/*.json
var Content embed.FS
