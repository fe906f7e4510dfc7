package features

import (
	"fmt"
	"strings"
)

const defaultModel = "gpt-4o-mini"

// builtinFeatures returns the feature set of the learning application.
// Evaluation features run at low temperature for determinism; explanation
// features run warmer for more natural output.
func builtinFeatures() []*Feature {
	return []*Feature{
		translateFeature(),
		explainVocabFeature(),
		grammarCheckFeature(),
		reviewEvalFeature(),
	}
}

func translateFeature() *Feature {
	return &Feature{
		Name: "translate",
		Params: []ParamField{
			{Name: "text", Type: ParamString, Required: true},
			{Name: "source_lang", Type: ParamString, Fold: true},
			{Name: "target_lang", Type: ParamString, Required: true, Fold: true},
		},
		Output: Schema{Fields: []Field{
			{Name: "translation", Type: TypeString, Required: true},
			{Name: "detected_lang", Type: TypeString},
		}},
		TTLClass:    TTLShort,
		Model:       defaultModel,
		Temperature: 0.3,
		buildPrompt: func(p map[string]any) (string, string) {
			system := "You are a translation engine for language learners. " +
				"Respond with a JSON object containing \"translation\" and, " +
				"when the source language was not given, \"detected_lang\"."
			source := "auto-detect"
			if s, ok := p["source_lang"].(string); ok && s != "" {
				source = s
			}
			prompt := fmt.Sprintf("Translate the following text from %s to %s:\n\n%s",
				source, p["target_lang"], p["text"])
			return system, prompt
		},
		summarize: func(p map[string]any) string {
			return fmt.Sprintf("translate to %s: %s", p["target_lang"], truncate(str(p["text"]), 60))
		},
	}
}

func explainVocabFeature() *Feature {
	levels := []string{"beginner", "intermediate", "advanced"}
	return &Feature{
		Name: "explain_vocab",
		Params: []ParamField{
			{Name: "word", Type: ParamString, Required: true, Fold: true},
			{Name: "language", Type: ParamString, Fold: true},
			{Name: "level", Type: ParamString, Enum: levels, Fold: true},
		},
		Output: Schema{Fields: []Field{
			{Name: "word", Type: TypeString, Required: true},
			{Name: "definition", Type: TypeString, Required: true},
			{Name: "examples", Type: TypeStringArray, Required: true},
			{Name: "synonyms", Type: TypeStringArray},
			{Name: "part_of_speech", Type: TypeString, Enum: []string{
				"noun", "verb", "adjective", "adverb", "preposition",
				"conjunction", "interjection", "pronoun", "other",
			}},
		}},
		TTLClass:    TTLShort,
		Model:       defaultModel,
		Temperature: 0.7,
		buildPrompt: func(p map[string]any) (string, string) {
			system := "You are a vocabulary tutor. Respond with a JSON object " +
				"containing \"word\", \"definition\", \"examples\" (array of " +
				"sentences), and optionally \"synonyms\" and \"part_of_speech\"."
			level := "intermediate"
			if l, ok := p["level"].(string); ok && l != "" {
				level = l
			}
			prompt := fmt.Sprintf("Explain the word %q for a %s learner", p["word"], level)
			if lang, ok := p["language"].(string); ok && lang != "" {
				prompt += fmt.Sprintf(" of %s", lang)
			}
			prompt += ". Include example sentences."
			return system, prompt
		},
		summarize: func(p map[string]any) string {
			return fmt.Sprintf("explain %q", str(p["word"]))
		},
	}
}

func grammarCheckFeature() *Feature {
	return &Feature{
		Name: "grammar_check",
		Params: []ParamField{
			{Name: "text", Type: ParamString, Required: true},
			{Name: "language", Type: ParamString, Fold: true},
		},
		Output: Schema{Fields: []Field{
			{Name: "corrected", Type: TypeString, Required: true},
			{Name: "issues", Type: TypeObjectArray, Required: true, Fields: []Field{
				{Name: "span", Type: TypeString, Required: true},
				{Name: "explanation", Type: TypeString, Required: true},
				{Name: "severity", Type: TypeString, Required: true, Enum: []string{"minor", "major"}},
			}},
		}},
		TTLClass:    TTLLong,
		Model:       defaultModel,
		Temperature: 0.2,
		buildPrompt: func(p map[string]any) (string, string) {
			system := "You are a grammar checker. Analyze the text step by " +
				"step and respond with a JSON object containing \"corrected\" " +
				"(the fixed text) and \"issues\" (array of objects with " +
				"\"span\", \"explanation\" and \"severity\" of minor or major)."
			prompt := fmt.Sprintf("Check the grammar of this text:\n\n%s", p["text"])
			if lang, ok := p["language"].(string); ok && lang != "" {
				prompt += fmt.Sprintf("\n\nThe text is in %s.", lang)
			}
			return system, prompt
		},
		summarize: func(p map[string]any) string {
			return fmt.Sprintf("grammar check: %s", truncate(str(p["text"]), 60))
		},
	}
}

func reviewEvalFeature() *Feature {
	return &Feature{
		Name: "review_eval",
		Params: []ParamField{
			{Name: "expected", Type: ParamString, Required: true},
			{Name: "answer", Type: ParamString, Required: true},
			{Name: "skill", Type: ParamString, Enum: []string{"vocabulary", "grammar", "listening"}, Fold: true},
		},
		Output: Schema{Fields: []Field{
			{Name: "verdict", Type: TypeString, Required: true, Enum: []string{"correct", "partial", "incorrect"}},
			{Name: "score", Type: TypeNumber, Required: true},
			{Name: "feedback", Type: TypeString},
		}},
		TTLClass:    TTLLong,
		Model:       defaultModel,
		Temperature: 0.1,
		buildPrompt: func(p map[string]any) (string, string) {
			system := "You grade spaced-repetition review answers. Respond " +
				"with a JSON object containing \"verdict\" (correct, partial " +
				"or incorrect), \"score\" (0 to 1) and optional \"feedback\"."
			prompt := fmt.Sprintf("Expected answer: %s\nLearner answer: %s", p["expected"], p["answer"])
			if skill, ok := p["skill"].(string); ok && skill != "" {
				prompt += fmt.Sprintf("\nSkill under review: %s", skill)
			}
			return system, prompt
		},
		summarize: func(p map[string]any) string {
			return fmt.Sprintf("review eval: %s", truncate(str(p["answer"]), 60))
		},
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
