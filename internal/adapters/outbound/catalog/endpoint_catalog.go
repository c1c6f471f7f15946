package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type catalogFile struct {
	Endpoints []catalogEntry `yaml:"endpoints"`
}

type catalogEntry struct {
	ID        string `yaml:"id"`
	Provider  string `yaml:"provider"`
	Operation string `yaml:"operation"`
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
}

// FileEndpointCatalog reads the static endpoint catalog from a YAML file.
type FileEndpointCatalog struct {
	path string
}

var _ portsout.EndpointCatalogSource = (*FileEndpointCatalog)(nil)

func NewFileEndpointCatalog(path string) *FileEndpointCatalog {
	return &FileEndpointCatalog{path: path}
}

func (c *FileEndpointCatalog) Load(_ context.Context) ([]entities.Endpoint, *apperrors.AppError) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, apperrors.NewInternal(
			"endpoint_catalog_read_failed",
			"failed to read endpoint catalog",
			map[string]any{"path": c.path, "error": err.Error()},
		)
	}
	endpoints, err := Parse(data)
	if err != nil {
		return nil, apperrors.NewValidation(
			"endpoint_catalog_invalid",
			"endpoint catalog is invalid",
			map[string]any{"path": c.path, "error": err.Error()},
		)
	}
	return endpoints, nil
}

// Parse decodes a catalog document. Unknown keys and duplicate
// (provider, operation) pairs are rejected.
func Parse(data []byte) ([]entities.Endpoint, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse endpoint catalog: %w", err)
	}
	if len(file.Endpoints) == 0 {
		return nil, fmt.Errorf("endpoint catalog has no endpoints")
	}

	endpoints := make([]entities.Endpoint, 0, len(file.Endpoints))
	seen := make(map[string]struct{}, len(file.Endpoints))
	for i, entry := range file.Endpoints {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = "ep_" + strings.ToLower(strings.TrimSpace(entry.Provider)) + "_" + strings.ToLower(strings.TrimSpace(entry.Operation))
		}
		endpoint, appErr := entities.NewEndpoint(id, entry.Provider, entry.Operation, entry.Path, entry.Method)
		if appErr != nil {
			return nil, fmt.Errorf("endpoint %d: %s", i, appErr.Message)
		}
		if endpoint.Path == "" {
			return nil, fmt.Errorf("endpoint %d: path is required", i)
		}
		key := endpoint.Provider + "/" + endpoint.Operation
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("endpoint %d: duplicate operation %s", i, key)
		}
		seen[key] = struct{}{}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, nil
}
