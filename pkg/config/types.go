package config

import (
	"fmt"
	"strconv"
)

// Config represents the rolechat configuration stored as config.toml.
// The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Corpus      CorpusConfig      `toml:"corpus"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Users       UsersConfig       `toml:"users"`
	Events      EventsConfig      `toml:"events"`
	RBAC        RBACConfig        `toml:"rbac"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// CorpusConfig holds corpus location and chunking settings.
type CorpusConfig struct {
	Root         string `toml:"root,omitempty"`
	MaxWords     uint   `toml:"max_words,omitempty"`
	OverlapWords uint   `toml:"overlap_words,omitempty"`
	MinWords     uint   `toml:"min_words,omitempty"`
	MinRowWords  uint   `toml:"min_row_words,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Host       string `toml:"host,omitempty"`
	Port       uint   `toml:"port,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	UseTLS     bool   `toml:"use_tls,omitempty"`
	Collection string `toml:"collection,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// LLMConfig holds answer-generation model settings.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// RetrievalConfig holds retrieval tuning settings.
type RetrievalConfig struct {
	TopK     uint    `toml:"top_k,omitempty"`
	MinScore float64 `toml:"min_score,omitempty"`
}

// UsersConfig holds the user directory settings.
type UsersConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
	Seed       bool   `toml:"seed,omitempty"`
}

// EventsConfig holds indexing event publication settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// RBACConfig holds retrieval policy extensions. Grants maps a caller role to
// extra document roles it may retrieve from, on top of the built-in defaults.
type RBACConfig struct {
	Grants map[string][]string `toml:"grants,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"corpus.root": {
		get: func(c *Config) string { return c.Corpus.Root },
		set: func(c *Config, v string) error { c.Corpus.Root = v; return nil },
	},
	"corpus.max_words": {
		get: func(c *Config) string { return formatUint(c.Corpus.MaxWords) },
		set: func(c *Config, v string) error { return setUint(&c.Corpus.MaxWords, "corpus.max_words", v) },
	},
	"corpus.overlap_words": {
		get: func(c *Config) string { return formatUint(c.Corpus.OverlapWords) },
		set: func(c *Config, v string) error { return setUint(&c.Corpus.OverlapWords, "corpus.overlap_words", v) },
	},
	"corpus.min_words": {
		get: func(c *Config) string { return formatUint(c.Corpus.MinWords) },
		set: func(c *Config, v string) error { return setUint(&c.Corpus.MinWords, "corpus.min_words", v) },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": {
		get: func(c *Config) string { return formatUint(c.VectorStore.Port) },
		set: func(c *Config, v string) error { return setUint(&c.VectorStore.Port, "vector_store.port", v) },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"vector_store.sqlite_path": {
		get: func(c *Config) string { return c.VectorStore.SQLitePath },
		set: func(c *Config, v string) error { c.VectorStore.SQLitePath = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string { return formatUint(c.Embedding.Dimensions) },
		set: func(c *Config, v string) error { return setUint(&c.Embedding.Dimensions, "embedding.dimensions", v) },
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"retrieval.top_k": {
		get: func(c *Config) string { return formatUint(c.Retrieval.TopK) },
		set: func(c *Config, v string) error { return setUint(&c.Retrieval.TopK, "retrieval.top_k", v) },
	},
	"retrieval.min_score": {
		get: func(c *Config) string {
			if c.Retrieval.MinScore == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Retrieval.MinScore, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.min_score: %w", err)
			}
			c.Retrieval.MinScore = f
			return nil
		},
	},
	"users.sqlite_path": {
		get: func(c *Config) string { return c.Users.SQLitePath },
		set: func(c *Config, v string) error { c.Users.SQLitePath = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func setUint(target *uint, key, v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = uint(n)
	return nil
}
