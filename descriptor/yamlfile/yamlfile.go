// Package yamlfile is a reference descriptor.Parser: one YAML document per
// plug-in directory entry. It exists so the loader SPI and scan engine can
// be exercised end-to-end by tests and by the pluginscan CLI harness; a real
// host is free to supply any other descriptor.Parser (spec section 1 keeps
// the descriptor format itself out of the core's scope).
package yamlfile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hostplane/pluginfw/plugin"
)

// document is the on-disk shape. Field names mirror spec section 3's
// descriptor-only fields.
type document struct {
	ID              string              `yaml:"id"`
	Version         string              `yaml:"version"`
	Name            string              `yaml:"name"`
	Provider        string              `yaml:"provider"`
	Imports         []string            `yaml:"imports"`
	ExtensionPoints []extensionPointDoc `yaml:"extension_points"`
	Extensions      []extensionDoc      `yaml:"extensions"`
	Runtime         string              `yaml:"runtime"`
}

type extensionPointDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type extensionDoc struct {
	Point string `yaml:"point"`
	ID    string `yaml:"id"`
}

// Parser is a descriptor.Parser reading YAML plug-in manifests.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse implements descriptor.Parser.
func (*Parser) Parse(_ context.Context, path string) (*plugin.Info, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("yamlfile: %s: %w", path, err)
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("yamlfile: %s: missing id", path)
	}

	var version *plugin.Version
	if doc.Version != "" {
		version, err = plugin.ParseVersion(doc.Version)
		if err != nil {
			return nil, fmt.Errorf("yamlfile: %s: %w", path, err)
		}
	}

	info := plugin.New(doc.ID, version, path)
	info.Name = doc.Name
	info.Provider = doc.Provider
	info.Imports = doc.Imports
	info.Runtime = doc.Runtime
	for _, ep := range doc.ExtensionPoints {
		info.ExtensionPoints = append(info.ExtensionPoints, plugin.ExtensionPoint{ID: ep.ID, Name: ep.Name})
	}
	for _, ext := range doc.Extensions {
		info.Extensions = append(info.Extensions, plugin.Extension{Point: ext.Point, ID: ext.ID})
	}

	return info, nil
}
