package checkpoint

import (
	"fmt"
	"strings"
)

// LoadParts reads every existing part of a run. Absent slots are nil.
func LoadParts(st Store, total int) ([]*string, error) {
	parts := make([]*string, total)
	for i := 0; i < total; i++ {
		exists, err := st.PartExists(i)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		text, err := st.ReadPart(i)
		if err != nil {
			return nil, err
		}
		parts[i] = &text
	}
	return parts, nil
}

// Missing returns the indices of absent part slots.
func Missing(parts []*string) []int {
	var missing []int
	for i, p := range parts {
		if p == nil {
			missing = append(missing, i)
		}
	}
	return missing
}

// Combine renders the parts as one document: a "Part N" heading per slot
// followed by its text, sections joined by blank lines. Absent slots keep
// their heading with empty content so gaps stay visible.
func Combine(parts []*string) string {
	sections := make([]string, 0, len(parts))
	for i, p := range parts {
		content := ""
		if p != nil {
			content = *p
		}
		sections = append(sections, fmt.Sprintf("Part %d\n\n%s", i+1, content))
	}
	return strings.Join(sections, "\n\n")
}
