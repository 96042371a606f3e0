package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-adaptive-ibl/pkg/envmap"
)

// ErrUnknownScene is returned for names without a built-in scene
var ErrUnknownScene = errors.New("unknown scene")

type builtin struct {
	description string
	build       func(env *envmap.EnvironmentMap, width, height int) *Scene
}

var builtins = map[string]builtin{
	"default":   {"Diffuse spheres on an open ground plane", NewDefaultScene},
	"courtyard": {"Walled courtyard open only to the sky above", NewCourtyardScene},
}

// Names returns the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds a built-in scene lit by env
func New(name string, env *envmap.EnvironmentMap, width, height int) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScene, name, Names())
	}
	if env == nil {
		return nil, fmt.Errorf("scene %q needs an environment map", name)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}
	return b.build(env, width, height), nil
}
