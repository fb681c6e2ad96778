package plan

import (
	"fmt"

	"github.com/bug39/scenesmith/pkg/validation"
)

// convertLayers handles the layered shape: a "layers" object with
// focal/anchors/frame/fill entry lists. Entries are flattened into the
// canonical plan tagged with their originating layer. Layer-specific
// spacing defaults apply only when the entry didn't set its own value;
// generic fallbacks never overwrite them, which preserves the per-layer
// composition intent.
func convertLayers(raw map[string]any, report *validation.Report) *Plan {
	p := &Plan{Type: TypeLayered}
	layers := getMap(raw, "layers")

	focal := getMapArray(layers, "focal")
	if fm := getMap(layers, "focal"); fm != nil {
		focal = []map[string]any{fm} // a single focal object is also accepted
	}
	if len(focal) == 0 {
		report.AddWarning(validation.Result{
			Level:   validation.LevelPlan,
			Message: "layered plan has no focal entry",
			Path:    "layers.focal",
		})
	}
	for i, m := range focal {
		if i > 0 {
			report.AddWarning(validation.Result{
				Level:   validation.LevelPlan,
				Message: fmt.Sprintf("layered plan has %d focal entries; extras dropped", len(focal)),
				Path:    "layers.focal",
			})
			break
		}
		s := parseStructure(m, i)
		s.Layer = LayerFocal
		p.Structures = append(p.Structures, s)
	}

	for i, m := range getMapArray(layers, "anchors") {
		s := parseStructure(m, 100+i)
		s.Layer = LayerAnchors
		applyLayerSpacing(&s, LayerAnchors)
		p.Structures = append(p.Structures, s)
	}

	for i, m := range getMapArray(layers, "frame") {
		item := parseAtmosphere(m, i)
		item.Layer = LayerFrame
		if item.Rel.Distance <= 0 {
			item.Rel.Distance = layerDefaults[LayerFrame].Radius
		}
		if item.Rel.MinDistance <= 0 {
			item.Rel.MinDistance = layerDefaults[LayerFrame].MinDistance
		}
		p.Atmosphere = append(p.Atmosphere, item)
	}

	for i, m := range getMapArray(layers, "fill") {
		item := parseAtmosphere(m, 100+i)
		item.Layer = LayerFill
		item.Rel.Relation = "scattered"
		if item.Rel.MinDistance <= 0 {
			item.Rel.MinDistance = layerDefaults[LayerFill].MinDistance
		}
		p.Atmosphere = append(p.Atmosphere, item)
	}

	return p
}

// applyLayerSpacing fills spacing fields from the layer table when the
// entry left them unset.
func applyLayerSpacing(s *Structure, layer Layer) {
	d := layerDefaults[layer]
	if s.Placement.Distance <= 0 {
		s.Placement.Distance = d.Radius
	}
	if s.MinDistance <= 0 {
		s.MinDistance = d.MinDistance
	}
}
