// Package opcode resolves the service-code set placed on a new appointment.
package opcode

// Resolve deduplicates recordCodes (first occurrence wins, order preserved)
// and appends defaultCode at the end unless it is already present. Comparison
// is case-sensitive. The result never contains duplicates.
func Resolve(recordCodes []string, defaultCode string) []string {
	seen := make(map[string]struct{}, len(recordCodes)+1)
	resolved := make([]string, 0, len(recordCodes)+1)

	for _, code := range recordCodes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		resolved = append(resolved, code)
	}

	if defaultCode != "" {
		if _, ok := seen[defaultCode]; !ok {
			resolved = append(resolved, defaultCode)
		}
	}

	return resolved
}

// Filter keeps only the codes present in the dealer's known set, preserving
// order. Used during extraction to drop opcodes not eligible for follow-up.
func Filter(recordCodes []string, known map[string]string) []string {
	kept := make([]string, 0, len(recordCodes))
	for _, code := range recordCodes {
		if _, ok := known[code]; ok {
			kept = append(kept, code)
		}
	}
	return kept
}

// Descriptions maps each resolved code to its description from the dealer's
// opcode set, empty when unknown.
func Descriptions(codes []string, known map[string]string) map[string]string {
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		out[code] = known[code]
	}
	return out
}
