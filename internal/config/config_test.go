package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
ollama:
  host: http://ollama:11434
  embed_model: test-embed
knowledge:
  memory_dir: ./memory
  top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Ollama.Host != "http://ollama:11434" {
		t.Errorf("ollama host = %s", cfg.Ollama.Host)
	}
	if cfg.Knowledge.TopK != 3 {
		t.Errorf("top_k = %d", cfg.Knowledge.TopK)
	}
	// ./-relative paths expand against the config directory.
	if cfg.Knowledge.MemoryDir != filepath.Join(dir, "memory") {
		t.Errorf("memory_dir = %s", cfg.Knowledge.MemoryDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("host = %s", cfg.Server.Host)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("embed_model = %s", cfg.Ollama.EmbedModel)
	}
	if cfg.Ollama.ChatModel != "qwen3:4b" {
		t.Errorf("chat_model = %s", cfg.Ollama.ChatModel)
	}
	if cfg.Ollama.MaxRetries != 3 {
		t.Errorf("max_retries = %d", cfg.Ollama.MaxRetries)
	}
	if cfg.Knowledge.DistanceCutoff != 0.8 {
		t.Errorf("distance_cutoff = %f", cfg.Knowledge.DistanceCutoff)
	}
	if cfg.Knowledge.ChunkSize != 1600 || cfg.Knowledge.ChunkOverlap != 400 {
		t.Errorf("chunking defaults = %d/%d", cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	}
	if cfg.Knowledge.MinSectionLength != 50 {
		t.Errorf("min_section_length = %d", cfg.Knowledge.MinSectionLength)
	}
	if cfg.Storage.CollectionName != "personal_knowledge" {
		t.Errorf("collection_name = %s", cfg.Storage.CollectionName)
	}
	if !cfg.Watch.EnabledOrDefault() {
		t.Error("watch should default to enabled")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Server.Port = 1234
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 1234 {
		t.Errorf("round-trip port = %d", loaded.Server.Port)
	}
}
