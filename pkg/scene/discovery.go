package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info describes a built-in scene or an environment map found on disk
type Info struct {
	ID          string `json:"id"`          // Name to pass to New, or the map's path
	DisplayName string `json:"displayName"` // Name for listings
	Description string `json:"description"`
	Group       string `json:"group"`
	Type        string `json:"type"` // "builtin" or "envmap"
}

// Group is a named list of entries
type Group struct {
	Name    string `json:"name"`
	Entries []Info `json:"entries"`
}

const (
	builtinGroup     = "Built-in Scenes"
	environmentGroup = "Environment Maps"
)

// environmentExtensions are the formats envmap.Load decodes
var environmentExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// BuiltinScenes returns the built-in scenes in name order
func BuiltinScenes() []Info {
	var infos []Info
	for _, name := range Names() {
		infos = append(infos, Info{
			ID:          name,
			DisplayName: titleCase(name),
			Description: builtins[name].description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}
	return infos
}

// ListEnvironmentMaps returns the loadable images directly inside dir.
// A missing directory yields an empty list.
func ListEnvironmentMaps(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan environment directory: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || !environmentExtensions[ext] {
			continue
		}
		infos = append(infos, Info{
			ID:          filepath.Join(dir, entry.Name()),
			DisplayName: titleCase(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
			Group:       environmentGroup,
			Type:        "envmap",
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].DisplayName < infos[j].DisplayName
	})
	return infos, nil
}

// ListAll returns built-in scenes followed by the environment maps in dir
func ListAll(dir string) ([]Group, error) {
	maps, err := ListEnvironmentMaps(dir)
	if err != nil {
		return nil, err
	}

	groups := []Group{{Name: builtinGroup, Entries: BuiltinScenes()}}
	if len(maps) > 0 {
		groups = append(groups, Group{Name: environmentGroup, Entries: maps})
	}
	return groups, nil
}

// titleCase converts a filename-style string to title case
// e.g., "sunset-court" -> "Sunset Court"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
