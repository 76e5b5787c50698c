package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8093
	}
	if cfg.Ollama.Host == "" {
		cfg.Ollama.Host = "http://localhost:11434"
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = "nomic-embed-text"
	}
	if cfg.Ollama.ChatModel == "" {
		cfg.Ollama.ChatModel = "qwen3:4b"
	}
	if cfg.Ollama.Dimensions == 0 {
		cfg.Ollama.Dimensions = 768
	}
	if cfg.Ollama.TimeoutSeconds == 0 {
		// Minutes-scale: a small local model on CPU can be slow on cold start.
		cfg.Ollama.TimeoutSeconds = 300
	}
	if cfg.Ollama.MaxRetries == 0 {
		cfg.Ollama.MaxRetries = 3
	}
	if cfg.Ollama.CacheSize == 0 {
		cfg.Ollama.CacheSize = 10000
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kioku/data/db/knowledge.db"
	}
	if cfg.Storage.CollectionName == "" {
		cfg.Storage.CollectionName = "personal_knowledge"
	}
	if cfg.Knowledge.MemoryDir == "" {
		cfg.Knowledge.MemoryDir = ".openclaw/workspace/memory"
	}
	if len(cfg.Knowledge.SessionDirs) == 0 {
		cfg.Knowledge.SessionDirs = []string{".openclaw/agents/main/sessions"}
	}
	if cfg.Knowledge.Extensions == nil {
		cfg.Knowledge.Extensions = []string{".md", ".txt", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = 5
	}
	if cfg.Knowledge.DistanceCutoff == 0 {
		cfg.Knowledge.DistanceCutoff = 0.8
	}
	if cfg.Knowledge.ChunkSize == 0 {
		cfg.Knowledge.ChunkSize = 1600
	}
	if cfg.Knowledge.ChunkOverlap == 0 {
		cfg.Knowledge.ChunkOverlap = 400
	}
	if cfg.Knowledge.MinSectionLength == 0 {
		cfg.Knowledge.MinSectionLength = 50
	}
	if cfg.Knowledge.MaxAssistantChars == 0 {
		cfg.Knowledge.MaxAssistantChars = 500
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 2000
	}
}
