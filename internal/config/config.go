package config

// Config represents the complete ipcgen configuration.
// It can be loaded from .ipcgen/config.yml with environment variable overrides.
type Config struct {
	Source           SourceConfig       `yaml:"source" mapstructure:"source"`
	Output           OutputConfig       `yaml:"output" mapstructure:"output"`
	Runtime          RuntimeConfig      `yaml:"runtime" mapstructure:"runtime"`
	Capabilities     CapabilitiesConfig `yaml:"capabilities" mapstructure:"capabilities"`
	DefaultNamespace string             `yaml:"default_namespace" mapstructure:"default_namespace"`
}

// SourceConfig defines which files to scan and which to ignore.
type SourceConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// OutputConfig holds the destinations of the three generated modules,
// relative to the project root.
type OutputConfig struct {
	Host   string `yaml:"host" mapstructure:"host"`
	Client string `yaml:"client" mapstructure:"client"`
	Types  string `yaml:"types" mapstructure:"types"`
}

// RuntimeConfig points generated code at the runtime controller package.
type RuntimeConfig struct {
	Module string `yaml:"module" mapstructure:"module"` // import specifier, e.g. "@ipcgen/runtime"
}

// CapabilitiesConfig toggles optional generation behavior.
type CapabilitiesConfig struct {
	// AsyncStreams accepts AsyncIterableIterator returns in addition to
	// Promise and routes them through the client's stream call.
	AsyncStreams bool `yaml:"async_streams" mapstructure:"async_streams"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Include: []string{
				"**/*.ts",
				"**/*.tsx",
				"**/*.mts",
				"**/*.cts",
			},
			Ignore: []string{
				"node_modules/**",
				"dist/**",
				"build/**",
				"out/**",
				".git/**",
				"**/*.d.ts",
				"**/*.test.ts",
				"**/*.spec.ts",
			},
		},
		Output: OutputConfig{
			Host:   "src/generated/ipc-host.ts",
			Client: "src/generated/ipc-client.ts",
			Types:  "src/generated/ipc-types.d.ts",
		},
		Runtime: RuntimeConfig{
			Module: "@ipcgen/runtime",
		},
		Capabilities: CapabilitiesConfig{
			AsyncStreams: false,
		},
		DefaultNamespace: "mainProcess",
	}
}

// GetSourceExtensions extracts unique file extensions from include patterns.
// Returns extensions with leading dot (e.g., []string{".ts", ".tsx"}).
func (c *Config) GetSourceExtensions() []string {
	extMap := make(map[string]bool)

	for _, pattern := range c.Source.Include {
		if ext := extractExtension(pattern); ext != "" {
			extMap[ext] = true
		}
	}

	extensions := make([]string, 0, len(extMap))
	for ext := range extMap {
		extensions = append(extensions, ext)
	}

	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Returns empty string if pattern doesn't match a simple extension pattern.
// Examples: "**/*.ts" -> ".ts", "*.tsx" -> ".tsx"
func extractExtension(pattern string) string {
	// Find the last occurrence of *.ext pattern
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
