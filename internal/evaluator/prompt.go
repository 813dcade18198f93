package evaluator

import (
	"bytes"
	"text/template"
)

const systemPromptTemplate = `You are a certified {{.}} writing tutor helping students improve grammar, vocabulary, and structure. You give feedback using CEFR standards and encourage learners with kind human messages.`

var systemTemplate = template.Must(template.New("system").Parse(systemPromptTemplate))

var userTemplate = template.Must(template.New("evaluation").Parse(`You are an expert {{.Language}} writing tutor following the CEFR framework (A1-C2) to help learners improve their writing based on images and their written paragraphs.

The learner was shown the following image (described by a vision-language model):
---
{{.Description}}
---

Then the learner wrote the following paragraph in {{.Language}}:
---
{{.Paragraph}}
---

Please provide a JSON response that includes:
1. "relevance_score": A score out of 100 evaluating how relevant the paragraph is to the image.
2. "grammar_score": A score out of 100 evaluating grammar accuracy (subject-verb agreement, tense, etc.).
3. "vocabulary_score": A score out of 100 evaluating the richness and accuracy of vocabulary.
4. "mistakes": A list of grammar or vocabulary mistakes with suggestions for improvement.
5. "corrections": A corrected and polished version of the paragraph.
6. "learning_level": The estimated CEFR level (A1 to C2).
7. "tips": Actionable tips to improve writing based on the mistakes.
8. "highlight": A positive observation about the learner's writing (e.g. a strong sentence, clever word use).
9. "motivational_comment": A short, warm, encouraging comment to motivate the learner.

Format the response as clean JSON.`))

func buildSystemPrompt(language string) (string, error) {
	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, language); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildUserPrompt(in Input) (string, error) {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
