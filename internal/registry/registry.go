// Package registry holds the process-wide tool registry and the shared
// resources (logger, cache) handed to every tool execution.
package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sammcj/mcp-pdf-reader/internal/tools"
)

var (
	// toolRegistry maps tool names to implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is the set of tool names disabled via environment
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger

	// cache is the shared cache instance
	cache *sync.Map
)

// Init initialises the registry and shared resources.
func Init(l *logrus.Logger) {
	logger = l
	cache = &sync.Map{}

	parseDisabledTools()
}

// parseDisabledTools reads the DISABLED_TOOLS environment variable: a
// comma-separated list of tool names to withhold from registration.
func parseDisabledTools() {
	disabledTools = make(map[string]bool)

	for tool := range strings.SplitSeq(os.Getenv("DISABLED_TOOLS"), ",") {
		tool = strings.TrimSpace(tool)
		if tool == "" {
			continue
		}
		disabledTools[tool] = true
		if logger != nil {
			logger.WithField("tool", tool).Debug("Tool disabled")
		}
	}
}

// Register adds a tool implementation to the registry unless it has
// been disabled via DISABLED_TOOLS.
func Register(tool tools.Tool) {
	if toolRegistry == nil {
		toolRegistry = make(map[string]tools.Tool)
	}

	name := tool.Definition().Name
	if disabledTools[name] {
		if logger != nil {
			logger.WithField("tool", name).Debug("Tool not registered (disabled via environment)")
		}
		return
	}

	toolRegistry[name] = tool
	if logger != nil {
		logger.WithField("tool", name).Debug("Tool registered")
	}
}

// GetTool retrieves a tool by name, returning false when the tool is
// unknown or disabled.
func GetTool(name string) (tools.Tool, bool) {
	if disabledTools[name] {
		return nil, false
	}
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetEnabledTools returns all registered tools, excluding disabled ones.
func GetEnabledTools() map[string]tools.Tool {
	enabled := make(map[string]tools.Tool)
	for name, tool := range toolRegistry {
		if disabledTools[name] {
			continue
		}
		enabled[name] = tool
	}
	return enabled
}

// GetEnabledToolNames returns a sorted list of enabled tool names.
func GetEnabledToolNames() []string {
	var names []string
	for name := range toolRegistry {
		if disabledTools[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLogger returns the shared logger instance.
func GetLogger() *logrus.Logger {
	return logger
}

// GetCache returns the shared cache instance.
func GetCache() *sync.Map {
	return cache
}
