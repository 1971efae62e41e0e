package escalation

import (
	"strings"

	"civicvoice-be/models"
)

// categoryVariants maps each canonical category to labels that external
// services and users commonly produce for it. Used only for matching,
// never for storage.
var categoryVariants = map[string][]string{
	"potholes":             {"pothole", "pot hole", "pot holes", "road hole"},
	"broken_street_lights": {"street light", "streetlight", "broken light", "lamp post", "street lamp"},
	"garbage":              {"trash", "waste", "litter", "rubbish", "dump", "garbage pile"},
	"water_logging":        {"waterlogging", "water logging", "flood", "flooding", "standing water", "drainage"},
	"damaged_roads":        {"damaged road", "broken road", "road damage", "road crack", "cracked road"},
	"broken_sidewalks":     {"sidewalk", "broken sidewalk", "pavement", "footpath", "broken footpath"},
	"vandalism":            {"graffiti", "defacement", "vandalised", "vandalized"},
}

// Normalize folds a free-form category label onto the canonical category
// vocabulary: lowercase, trimmed, spaces and hyphens replaced with
// underscores, then a fixed set of synonym foldings.
func Normalize(label string) string {
	n := strings.ToLower(strings.TrimSpace(label))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")

	// Collapse underscores away for the containment checks so that
	// "pot_hole" and "pothole" fold the same way.
	flat := strings.ReplaceAll(n, "_", "")

	switch {
	case strings.Contains(flat, "street") && strings.Contains(flat, "light"):
		return string(models.BrokenLights)
	case strings.Contains(flat, "water") && strings.Contains(flat, "log"):
		return string(models.WaterLogging)
	case strings.Contains(flat, "pothole"):
		return string(models.Potholes)
	case flat == "trash" || flat == "waste" || flat == "garbage" || flat == "rubbish" || flat == "litter":
		return string(models.Garbage)
	case strings.Contains(flat, "sidewalk") || strings.Contains(flat, "footpath"):
		return string(models.BrokenSidewalks)
	}

	return n
}

// Match reports whether two category labels refer to the same category:
// their normalized forms are equal, one contains the other, or both appear
// in the same synonym group.
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	for canonical, variants := range categoryVariants {
		if inGroup(na, canonical, variants) && inGroup(nb, canonical, variants) {
			return true
		}
	}
	return false
}

func inGroup(normalized, canonical string, variants []string) bool {
	if normalized == canonical {
		return true
	}
	for _, v := range variants {
		if Normalize(v) == normalized {
			return true
		}
	}
	return false
}

// DepartmentFor maps a category label to the department type used by the
// resolver's tier-2 fallback. Light-related labels are checked first so
// that street lights land with utilities rather than the road department.
func DepartmentFor(category string) string {
	n := strings.ReplaceAll(Normalize(category), "_", "")
	switch {
	case strings.Contains(n, "light"):
		return models.DeptUtilities
	case strings.Contains(n, "pothole"), strings.Contains(n, "road"),
		strings.Contains(n, "street"), strings.Contains(n, "sidewalk"):
		return models.DeptRoad
	case strings.Contains(n, "garbage"), strings.Contains(n, "trash"),
		strings.Contains(n, "waste"):
		return models.DeptSanitation
	case strings.Contains(n, "water"):
		return models.DeptPublicWorks
	}
	return models.DeptPublicWorks
}
