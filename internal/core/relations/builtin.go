package relations

import "github.com/samirrijal/geoquery/internal/core/domain"

const (
	directionalDistanceM = 10000
	defaultSectorDegrees = 90
)

func builtins() []domain.RelationConfig {
	cfgs := []domain.RelationConfig{
		{
			Name:        "in",
			Category:    domain.CategoryContainment,
			Description: "Feature is within the reference boundary",
		},
		{
			Name:             "near",
			Category:         domain.CategoryBuffer,
			Description:      "Proximity search with default 5km radius",
			DefaultDistanceM: domain.Float(5000),
			BufferFrom:       domain.BufferFromCenter,
		},
		{
			Name:             "around",
			Category:         domain.CategoryBuffer,
			Description:      "Similar to 'near' with 3km default radius",
			DefaultDistanceM: domain.Float(3000),
			BufferFrom:       domain.BufferFromCenter,
		},
		{
			Name:             "on_shores_of",
			Category:         domain.CategoryBuffer,
			Description:      "Ring buffer around lake/water boundary, excluding the water body itself",
			DefaultDistanceM: domain.Float(1000),
			BufferFrom:       domain.BufferFromBoundary,
			RingOnly:         true,
			AppliesTo:        []string{"lake", "water_body", "sea"},
		},
		{
			Name:             "along",
			Category:         domain.CategoryBuffer,
			Description:      "Buffer following a linear feature like a river or road",
			DefaultDistanceM: domain.Float(500),
			BufferFrom:       domain.BufferFromBoundary,
			AppliesTo:        []string{"river", "road", "railway", "linear_feature"},
		},
		{
			Name:             "in_the_heart_of",
			Category:         domain.CategoryBuffer,
			Description:      "Central area excluding periphery (negative buffer - erosion)",
			DefaultDistanceM: domain.Float(-500),
			BufferFrom:       domain.BufferFromBoundary,
		},
		{
			Name:             "deep_inside",
			Category:         domain.CategoryBuffer,
			Description:      "Well within boundaries, away from edges (strong negative buffer)",
			DefaultDistanceM: domain.Float(-1000),
			BufferFrom:       domain.BufferFromBoundary,
		},
	}

	for _, dir := range []string{"north", "south", "east", "west", "northeast", "southeast", "southwest", "northwest"} {
		cfgs = append(cfgs, domain.RelationConfig{
			Name:               dir + "_of",
			Category:           domain.CategoryDirectional,
			Description:        "Directional sector " + dir + " of reference",
			DefaultDistanceM:   domain.Float(directionalDistanceM),
			SectorAngleDegrees: domain.Float(defaultSectorDegrees),
			Direction:          dir,
		})
	}
	return cfgs
}
