package llm

import (
	_ "embed"
	"strconv"
	"strings"
)

var (
	//go:embed prompts/synthesis_system.txt
	synthesisSystem string
	//go:embed prompts/translation_system.txt
	translationSystem string
)

// SynthesisPrompt returns the system prompt for resume synthesis.
func SynthesisPrompt(language string, minExperience int) string {
	return strings.NewReplacer(
		"{{LANGUAGE}}", language,
		"{{MIN_EXPERIENCE}}", strconv.Itoa(minExperience),
	).Replace(synthesisSystem)
}

// TranslationPrompt returns the system prompt for translating a draft.
func TranslationPrompt(target string) string {
	return strings.NewReplacer("{{TARGET_LANGUAGE}}", target).Replace(translationSystem)
}

// CorrectionPrompt asks the model to fix its previous output.
func CorrectionPrompt(previous string, validationErr error) string {
	var b strings.Builder
	b.WriteString("Your previous answer was rejected: ")
	b.WriteString(validationErr.Error())
	b.WriteString("\nReturn the corrected JSON object only.")
	if p := strings.TrimSpace(previous); p != "" {
		b.WriteString("\nPrevious answer:\n")
		b.WriteString(truncate(p, 4000))
	}
	return b.String()
}
