// Package prompt assembles the bounded context block and the grounded
// instruction prompt handed to the generation model.
package prompt

import (
	"fmt"
	"strings"

	"ai-tutoring-be/pkg/store"
)

// DefaultMaxContextChars bounds the context block to keep prompts inside
// conservative model limits. Truncation is a hard character cut.
const DefaultMaxContextChars = 4000

// BuildContext joins retrieved chunk texts with a blank-line separator
// in ranking order, then truncates to maxChars. The cut is not
// sentence-aware; losing a trailing fragment is accepted.
func BuildContext(result store.RetrievalResult, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	texts := make([]string, 0, len(result.Chunks))
	for _, sc := range result.Chunks {
		texts = append(texts, sc.Chunk.Text)
	}
	joined := strings.Join(texts, "\n\n")

	if len(joined) > maxChars {
		joined = joined[:maxChars]
	}
	return joined
}

// GroundedBuilder creates the answer-generation prompt: curriculum
// context verbatim, the question, and a grade/language tone directive.
type GroundedBuilder struct {
	question     string
	contextBlock string
	gradeHint    *int
	languageHint string
}

func NewGroundedBuilder(question, contextBlock string, gradeHint *int, languageHint string) *GroundedBuilder {
	return &GroundedBuilder{
		question:     question,
		contextBlock: contextBlock,
		gradeHint:    gradeHint,
		languageHint: languageHint,
	}
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n\n")
	prompt.WriteString(b.contextBlock)
	prompt.WriteString("\n</reference_material>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a patient tutor answering a student's question using the reference material above.\n")
	prompt.WriteString("Explain clearly, step by step where it helps, and stay on topic.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Answer only from the reference material. If it does not cover the question, say so.\n")
	prompt.WriteString("2. Keep the answer focused: a few sentences, or a short list for multi-part answers.\n")
	if b.gradeHint != nil {
		prompt.WriteString(fmt.Sprintf("3. Use vocabulary and examples appropriate for a grade %d student.\n", *b.gradeHint))
	} else {
		prompt.WriteString("3. Use plain, encouraging language suitable for a school student.\n")
	}
	if b.languageHint != "" {
		prompt.WriteString(fmt.Sprintf("4. Respond in the language with code %q.\n", b.languageHint))
	}
	prompt.WriteString("</guidelines>\n\n")
}

func (b *GroundedBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("Question: ")
	prompt.WriteString(b.question)
}
