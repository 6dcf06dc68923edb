// Package config 提供 YAML 驱动的应用配置：数据/缓存路径、
// embedding 维度、推荐参数、会话后端与服务地址。
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是应用配置根结构。
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
}

// DataConfig 配置数据集与缓存文件路径。
type DataConfig struct {
	CatalogPath   string `yaml:"catalog_path"`
	EmbeddingPath string `yaml:"embedding_path"`
	IndexPath     string `yaml:"index_path"`
}

// EmbeddingConfig 配置编码器。
type EmbeddingConfig struct {
	// Dimension 向量维度；改动会触发缓存指纹不匹配并整体重建。
	Dimension int `yaml:"dimension"`
}

// RecommendConfig 配置推荐引擎。
type RecommendConfig struct {
	TopK       int    `yaml:"top_k"`
	Oversample int    `yaml:"oversample"`
	FilterExpr string `yaml:"filter_expr"`
}

// SessionConfig 配置会话存储后端：memory / redis。
type SessionConfig struct {
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// ServerConfig 配置服务边界。
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	AppName string `yaml:"app_name"`
}

// Default 返回默认配置（路径沿用既有数据布局）。
func Default() *Config {
	return &Config{
		Data: DataConfig{
			CatalogPath:   "data/imdb_cleaned.csv",
			EmbeddingPath: "embeddings/imdb_embeddings.csv",
			IndexPath:     "vectorstore/imdb_flat.index",
		},
		Embedding: EmbeddingConfig{Dimension: 256},
		Recommend: RecommendConfig{TopK: 5, Oversample: 2},
		Session:   SessionConfig{Backend: "memory"},
		Server:    ServerConfig{Addr: ":8080", AppName: "MovieChatbot"},
	}
}

// Load 读取 YAML 配置文件并叠加在默认值之上。
// path 为空时直接返回默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
