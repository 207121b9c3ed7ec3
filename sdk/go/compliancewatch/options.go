package compliancewatch

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	configPath     string
	denylistPath   string
	knowledgeFiles []string
	seedDemo       *bool
	blockAt        Level
}

// WithConfig sets the path to a compliancewatch config YAML file.
func WithConfig(path string) Option {
	return func(c *clientConfig) { c.configPath = path }
}

// WithDenylist sets the path to a supplier denylist YAML file.
func WithDenylist(path string) Option {
	return func(c *clientConfig) { c.denylistPath = path }
}

// WithKnowledgeFile adds a knowledge base YAML file to ingest.
func WithKnowledgeFile(path string) Option {
	return func(c *clientConfig) { c.knowledgeFiles = append(c.knowledgeFiles, path) }
}

// WithSeedDemo turns lazy seeding of the demo knowledge base on or off.
func WithSeedDemo(enabled bool) Option {
	return func(c *clientConfig) { c.seedDemo = &enabled }
}

// WithBlockAt sets the lowest level that blocks. The default is LevelBlock.
func WithBlockAt(level Level) Option {
	return func(c *clientConfig) { c.blockAt = level }
}
