// Package corpus ships a small fixed set of curriculum chunks. It backs
// the in-memory retrieval fallback and seeds the Postgres index in
// development, so the ask flow works before any content is ingested.
package corpus

import "ai-tutoring-be/pkg/store"

// Demo returns the built-in demo corpus. Chunk ids are stable; the
// retrieval path treats the set as read-only.
func Demo() []store.Chunk {
	return []store.Chunk{
		{
			ID:   "phy-9-001",
			Text: "Newton's first law states that an object stays at rest or keeps moving in a straight line at constant speed unless a net external force acts on it. This tendency of matter to resist changes in motion is called inertia.",
			Metadata: map[string]interface{}{
				"subject": "physics",
				"grade":   9,
				"chapter": "Laws of Motion",
			},
		},
		{
			ID:   "phy-9-002",
			Text: "Newton's second law links force, mass and acceleration: F = m × a. Doubling the net force on a body doubles its acceleration, while doubling its mass halves the acceleration for the same force.",
			Metadata: map[string]interface{}{
				"subject": "physics",
				"grade":   9,
				"chapter": "Laws of Motion",
			},
		},
		{
			ID:   "bio-9-001",
			Text: "Photosynthesis is the process by which green plants convert carbon dioxide and water into glucose and oxygen, using energy from sunlight captured by chlorophyll in the chloroplasts.",
			Metadata: map[string]interface{}{
				"subject": "biology",
				"grade":   9,
				"chapter": "Life Processes",
			},
		},
		{
			ID:   "mat-7-001",
			Text: "A fraction represents a part of a whole. The number above the line is the numerator and tells how many parts are taken; the number below the line is the denominator and tells how many equal parts the whole is divided into.",
			Metadata: map[string]interface{}{
				"subject": "mathematics",
				"grade":   7,
				"chapter": "Fractions",
			},
		},
		{
			ID:   "mat-7-002",
			Text: "To add fractions with different denominators, first rewrite them with a common denominator, usually the least common multiple of the denominators, then add the numerators and simplify the result.",
			Metadata: map[string]interface{}{
				"subject": "mathematics",
				"grade":   7,
				"chapter": "Fractions",
			},
		},
		{
			ID:   "che-10-001",
			Text: "A chemical reaction rearranges atoms: reactants are transformed into products. Mass is conserved, so a balanced chemical equation has the same number of each kind of atom on both sides.",
			Metadata: map[string]interface{}{
				"subject": "chemistry",
				"grade":   10,
				"chapter": "Chemical Reactions",
			},
		},
		{
			ID:   "his-8-001",
			Text: "The industrial revolution began in Britain in the late eighteenth century. Steam power, mechanized textile production and railways transformed economies from agricultural to industrial.",
			Metadata: map[string]interface{}{
				"subject": "history",
				"grade":   8,
				"chapter": "Industrialisation",
			},
		},
	}
}
