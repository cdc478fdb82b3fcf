// Package auth maps API keys to workspaces.
package auth

import (
	"fmt"

	"github.com/notelens-ai/notelens/internal/config"
)

// Workspace is the runtime representation of a workspace with its provider
// binding and default framework.
type Workspace struct {
	ID               string
	Provider         string
	DefaultFramework string
}

// Auth holds mappings from API keys to workspaces.
type Auth struct {
	apiKeyToWorkspace map[string]Workspace
}

// NewFromConfig builds an Auth instance from the loaded config.
func NewFromConfig(cfg *config.Config) (*Auth, error) {
	m := make(map[string]Workspace)

	for _, w := range cfg.Workspaces {
		if w.ID == "" {
			return nil, fmt.Errorf("workspace with empty id in config")
		}
		ws := Workspace{
			ID:               w.ID,
			Provider:         w.Provider,
			DefaultFramework: w.DefaultFramework,
		}
		for _, key := range w.APIKeys {
			if key == "" {
				continue
			}
			if _, exists := m[key]; exists {
				return nil, fmt.Errorf("api key %q is assigned to multiple workspaces", key)
			}
			m[key] = ws
		}
	}

	return &Auth{apiKeyToWorkspace: m}, nil
}

// Lookup returns the workspace for a given API key, if any.
func (a *Auth) Lookup(apiKey string) (Workspace, bool) {
	if a == nil {
		return Workspace{}, false
	}
	w, ok := a.apiKeyToWorkspace[apiKey]
	return w, ok
}
