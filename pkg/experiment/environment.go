package experiment

import (
	"fmt"

	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
)

func vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// LoadEnvironment loads the configured map, or rasterizes the procedural sky
func LoadEnvironment(cfg config.EnvironmentConfig) (*envmap.EnvironmentMap, error) {
	if cfg.File != "" {
		img, err := envmap.Load(cfg.File, envmap.LoadOptions{
			Scale:  cfg.Scale,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
		if err != nil {
			return nil, fmt.Errorf("loading environment map: %w", err)
		}
		return envmap.New(img), nil
	}

	sky := envmap.Sky{
		Zenith:       vec(cfg.Sky.Zenith),
		Horizon:      vec(cfg.Sky.Horizon),
		Ground:       vec(cfg.Sky.Ground),
		SunDirection: vec(cfg.Sky.SunDirection),
		SunRadius:    cfg.Sky.SunRadius,
		SunEmission:  vec(cfg.Sky.SunEmission),
	}
	img := envmap.NewSkyImage(cfg.Width, cfg.Height, sky)
	if cfg.Scale != 1 {
		img.Scale(cfg.Scale)
	}
	return envmap.New(img), nil
}
