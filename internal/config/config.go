// Package config loads project-level settings from codefactory.yml.
package config

import (
	"fmt"
	"os"

	"github.com/codefactory/codefactory/internal/marker"
	"github.com/spf13/viper"
)

// Defaults used when codefactory.yml is absent or silent.
const (
	DefaultTemplatesDir = ".codefactory/templates"
	DefaultManifestPath = "codefactory.json"
)

// Config is the resolved project configuration.
type Config struct {
	TemplatesDir string
	ManifestPath string
	TagAttr      marker.Attr // which marker attribute is authoritative
}

// Load reads codefactory.yml from the working directory. A missing file
// yields the defaults, not an error.
func Load() (*Config, error) {
	cfg := &Config{
		TemplatesDir: DefaultTemplatesDir,
		ManifestPath: DefaultManifestPath,
		TagAttr:      marker.AttrID,
	}

	if _, err := os.Stat("codefactory.yml"); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigName("codefactory")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read codefactory.yml: %w", err)
	}

	if dir := v.GetString("templates.dir"); dir != "" {
		cfg.TemplatesDir = dir
	}
	if path := v.GetString("manifest.path"); path != "" {
		cfg.ManifestPath = path
	}

	switch tag := v.GetString("marker.tag"); tag {
	case "", "id":
		cfg.TagAttr = marker.AttrID
	case "factory":
		cfg.TagAttr = marker.AttrFactory
	default:
		return nil, fmt.Errorf("unsupported marker.tag '%s' (supported: id, factory)", tag)
	}

	return cfg, nil
}
