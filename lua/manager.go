package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samaelod/netassist/config"
	"github.com/samaelod/netassist/types"
)

// SaveToRecent saves the profile to a new file in app's recent directory.
// Returns the path to the newly created file.
func SaveToRecent(app *config.Config, p *types.Profile, originalPath string) (string, error) {
	recentDir := ""
	if app != nil {
		recentDir = app.RecentDir
	}
	if recentDir == "" {
		recentDir = config.Default().RecentDir
	}

	return SaveProfile(recentDir, p, originalPath)
}

// SaveProfile writes p into dir as <base>_<n>.lua, where base comes from
// originalPath (or the profile name) and n is the first free counter.
func SaveProfile(dir string, p *types.Profile, originalPath string) (string, error) {
	if err := ValidateProfile(p); err != nil {
		return "", fmt.Errorf("invalid profile: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create recent directory: %w", err)
	}

	nameWithoutExt := baseName(p, originalPath)

	counter := 1
	var newPath string
	for {
		newPath = filepath.Join(dir, fmt.Sprintf("%s_%d.lua", nameWithoutExt, counter))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
		counter++
	}

	f, err := os.Create(newPath)
	if err != nil {
		return "", fmt.Errorf("failed to create profile file: %w", err)
	}
	defer f.Close()

	if err := WriteProfile(f, p); err != nil {
		return "", fmt.Errorf("failed to write profile to lua: %w", err)
	}

	return newPath, nil
}

func baseName(p *types.Profile, originalPath string) string {
	if originalPath != "" {
		base := filepath.Base(originalPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if p.Name != "" {
		return strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' || r == ' ' {
				return '_'
			}
			return r
		}, p.Name)
	}
	return "profile"
}
