package stage

import "strings"

// Normalize canonicalizes stage names and common aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalStageName(normalized); ok {
		return canonical
	}
	return normalized
}

func canonicalStageName(alias string) (string, bool) {
	switch alias {
	case "stage1", "stage2", "stage2-ev", "stage2-ev-challenge", "stage2-mirror",
		"stage3", "stage3-color":
		return alias, true
	}

	compact := strings.ReplaceAll(alias, "-", "")
	switch compact {
	case "1", "s1", "stage1":
		return "stage1", true
	case "2", "s2", "stage2":
		return "stage2", true
	case "2ev", "stage2ev":
		return "stage2-ev", true
	case "2evchallenge", "stage2evchallenge":
		return "stage2-ev-challenge", true
	case "2mirror", "stage2mirror":
		return "stage2-mirror", true
	case "3", "s3", "stage3":
		return "stage3", true
	case "3color", "stage3color":
		return "stage3-color", true
	default:
		return "", false
	}
}
