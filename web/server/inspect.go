package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/df07/go-adaptive-ibl/pkg/adaptive"
	"github.com/df07/go-adaptive-ibl/pkg/config"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/experiment"
	"github.com/df07/go-adaptive-ibl/pkg/report"
	"github.com/df07/go-adaptive-ibl/pkg/scene"
)

// inspectTopTiles caps the tiles listed per cell
const inspectTopTiles = 8

// InspectResponse describes what the learned sampler does at a pixel's primary hit
type InspectResponse struct {
	Hit      bool          `json:"hit"`
	Point    [3]float64    `json:"point"`
	Normal   [3]float64    `json:"normal"`
	Distance float64       `json:"distance"`
	Cell     *CellSummary  `json:"cell,omitempty"`
	Tiles    []TileSummary `json:"tiles,omitempty"` // Most likely tiles first
}

// CellSummary is the learned distribution of one light grid cell
type CellSummary struct {
	I              int     `json:"i"`
	J              int     `json:"j"`
	Observations   int64   `json:"observations"`
	Entropy        float64 `json:"entropy"`
	EffectiveTiles float64 `json:"effectiveTiles"`
}

// TileSummary is one tile as seen from a cell
type TileSummary struct {
	Tile        int     `json:"tile"`
	Probability float64 `json:"probability"` // Learned by the cell
	Share       float64 `json:"share"`       // Of the map's total energy
	Bounds      [4]int  `json:"bounds"`      // minX, minY, maxX, maxY in map pixels
}

// handleInspect learns the requested method and reports the distribution
// used at the surface seen through pixel (x, y)
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid parameters: "+err.Error())
		return
	}
	method, _ := config.ParseMethod(req.Method)
	if !method.Adaptive {
		writeError(w, http.StatusBadRequest, "Method has no light grid: "+req.Method)
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	cfg := s.configFor(req)
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	env, err := experiment.LoadEnvironment(cfg.Environment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sceneObj, err := scene.New(cfg.Scene.Name, env, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sampler, err := adaptive.New(sceneObj, sceneObj.Background(), experiment.AdaptiveConfig(cfg, method, s.logger))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := sampler.Learn(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(sceneObj, sampler, pixelX, pixelY))
}

// inspectPixel casts a ray through the pixel center and describes the cell at the hit
func inspectPixel(sceneObj *scene.Scene, sampler *adaptive.Sampler, pixelX, pixelY int) InspectResponse {
	ray := sceneObj.CameraRay(core.NewVec2(float64(pixelX)+0.5, float64(pixelY)+0.5))
	hit, isHit := sceneObj.Trace(ray)
	if !isHit {
		return InspectResponse{Hit: false}
	}

	i, j := sampler.CellAt(hit.Point)
	record := report.CellRecordAt(sampler.Grid(), i, j)
	response := InspectResponse{
		Hit:      true,
		Point:    [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:   [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance: hit.T,
		Cell: &CellSummary{
			I:              record.I,
			J:              record.J,
			Observations:   record.Observations,
			Entropy:        record.Entropy,
			EffectiveTiles: record.EffectiveTiles,
		},
	}

	tiles := report.TileRecords(sampler.Tiler())
	probs := sampler.Grid().Probabilities(i, j)
	for t, p := range probs {
		if p == 0 {
			continue
		}
		tile := tiles[t]
		response.Tiles = append(response.Tiles, TileSummary{
			Tile:        t,
			Probability: p,
			Share:       tile.Share,
			Bounds:      [4]int{tile.MinX, tile.MinY, tile.MaxX, tile.MaxY},
		})
	}
	sort.Slice(response.Tiles, func(a, b int) bool {
		return response.Tiles[a].Probability > response.Tiles[b].Probability
	})
	if len(response.Tiles) > inspectTopTiles {
		response.Tiles = response.Tiles[:inspectTopTiles]
	}
	return response
}
