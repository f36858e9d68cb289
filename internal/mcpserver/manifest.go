package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	repositoryURL  = "https://github.com/panbanda/orphan"
	imageName      = "ghcr.io/panbanda/orphan"
)

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string            `json:"$schema"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Repository  map[string]string `json:"repository"`
	Packages    []ManifestPackage `json:"packages"`
}

// ManifestPackage runs the server from the container image over stdio.
type ManifestPackage struct {
	RegistryType     string              `json:"registryType"`
	Identifier       string              `json:"identifier"`
	PackageArguments []map[string]string `json:"packageArguments,omitempty"`
	Transport        map[string]string   `json:"transport"`
}

// GenerateManifest renders server.json for a build version. Release tags
// lose their "v" prefix and development builds publish as 0.0.0, so the
// image tag always matches the registry version.
func GenerateManifest(version string) ([]byte, error) {
	version = manifestVersion(version)
	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/" + serverName,
		Description: serverDescription,
		Version:     version,
		Repository:  map[string]string{"url": repositoryURL, "source": "github"},
		Packages: []ManifestPackage{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + version,
			PackageArguments: []map[string]string{{"type": "positional", "value": "mcp"}},
			Transport:        map[string]string{"type": "stdio"},
		}},
	}, "", "  ")
}

func manifestVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "dev" {
		return "0.0.0"
	}
	return v
}
