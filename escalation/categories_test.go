package escalation

import (
	"testing"

	"civicvoice-be/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Pot Hole", "potholes"},
		{"pothole", "potholes"},
		{"POTHOLES", "potholes"},
		{"Street Light", "broken_street_lights"},
		{"broken street-light", "broken_street_lights"},
		{"streetlight", "broken_street_lights"},
		{"Water Logging", "water_logging"},
		{"waterlogging", "water_logging"},
		{"Trash", "garbage"},
		{"waste", "garbage"},
		{"Garbage", "garbage"},
		{"Broken Sidewalk", "broken_sidewalks"},
		{"footpath", "broken_sidewalks"},
		{"Damaged Roads", "damaged_roads"},
		{"vandalism", "vandalism"},
		{"  other  ", "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.label), "Normalize(%q)", tt.label)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"waterlogging", "flood", true},
		{"water_logging", "flooding", true},
		{"garbage", "vandalism", false},
		{"Pot Hole", "potholes", true},
		{"potholes", "pot hole", true},
		{"garbage", "trash", true},
		{"garbage", "litter", true},
		{"Street Light", "lamp post", true},
		{"damaged_roads", "road crack", true},
		{"potholes", "garbage", false},
		{"broken_street_lights", "water_logging", false},
		{"", "garbage", false},
		{"garbage pile", "garbage", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.a, tt.b), "Match(%q, %q)", tt.a, tt.b)
	}
}

func TestMatchIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"waterlogging", "flood"},
		{"Pot Hole", "potholes"},
		{"garbage", "vandalism"},
		{"street light", "lamp post"},
	}
	for _, p := range pairs {
		assert.Equal(t, Match(p[0], p[1]), Match(p[1], p[0]),
			"Match(%q, %q) not symmetric", p[0], p[1])
	}
}

func TestDepartmentFor(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"potholes", models.DeptRoad},
		{"damaged_roads", models.DeptRoad},
		{"broken_sidewalks", models.DeptRoad},
		{"broken_street_lights", models.DeptUtilities},
		{"street light", models.DeptUtilities},
		{"garbage", models.DeptSanitation},
		{"trash", models.DeptSanitation},
		{"water_logging", models.DeptPublicWorks},
		{"other", models.DeptPublicWorks},
		{"vandalism", models.DeptPublicWorks},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DepartmentFor(tt.category), "DepartmentFor(%q)", tt.category)
	}
}
