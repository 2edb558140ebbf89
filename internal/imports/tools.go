// Package imports pulls in every tool package for side-effect
// registration with the registry.
package imports

import (
	_ "github.com/sammcj/mcp-pdf-reader/internal/tools/pdf"
)
