package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netdoctor/netdoctor/internal/models"
)

//go:embed data/knowledge_base.yaml
var defaultKnowledgeBase []byte

const fallbackConfidence = 0.5

// Entry is one canned answer.
type Entry struct {
	Response   string  `yaml:"response"`
	Confidence float64 `yaml:"confidence"`
}

type knowledgeFile struct {
	Fallback Entry            `yaml:"fallback"`
	Answers  map[string]Entry `yaml:"answers"`
}

// KnowledgeBase maps categories to canned answers.
type KnowledgeBase struct {
	answers  map[models.Category]Entry
	fallback Entry
}

// LoadKnowledgeBase reads a YAML knowledge base from path, or the built-in one
// when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data := defaultKnowledgeBase
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
		data = raw
	}
	return ParseKnowledgeBase(data)
}

// ParseKnowledgeBase decodes and validates a YAML knowledge base.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var file knowledgeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	kb := &KnowledgeBase{answers: make(map[models.Category]Entry, len(file.Answers)), fallback: file.Fallback}
	if strings.TrimSpace(kb.fallback.Response) == "" {
		return nil, fmt.Errorf("knowledge base: fallback response is required")
	}
	if kb.fallback.Confidence == 0 {
		kb.fallback.Confidence = fallbackConfidence
	}

	for label, entry := range file.Answers {
		category := models.ParseCategory(label)
		if category == models.CategoryUnknown {
			return nil, fmt.Errorf("knowledge base: unknown category %q", label)
		}
		if entry.Confidence < 0 || entry.Confidence > 1 {
			return nil, fmt.Errorf("knowledge base: %s confidence %.2f outside [0,1]", label, entry.Confidence)
		}
		kb.answers[category] = entry
	}
	return kb, nil
}

// Lookup returns the canned answer for a category.
func (kb *KnowledgeBase) Lookup(category models.Category) (Entry, bool) {
	entry, ok := kb.answers[category]
	return entry, ok
}

// Fallback returns the generic answer used when a category has no entry.
func (kb *KnowledgeBase) Fallback() Entry {
	return kb.fallback
}

// Assistant pairs a trained classifier with the knowledge base.
type Assistant struct {
	classifier *Classifier
	kb         *KnowledgeBase
}

// NewAssistant wires a classifier to a knowledge base.
func NewAssistant(classifier *Classifier, kb *KnowledgeBase) *Assistant {
	return &Assistant{classifier: classifier, kb: kb}
}

// Load trains the classifier and loads the knowledge base; empty paths use the
// built-in data.
func Load(corpusPath, knowledgeBasePath string) (*Assistant, error) {
	corpus, err := LoadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	model, err := Train(corpus)
	if err != nil {
		return nil, err
	}
	kb, err := LoadKnowledgeBase(knowledgeBasePath)
	if err != nil {
		return nil, err
	}
	return NewAssistant(model, kb), nil
}

// Classify returns the category for text.
func (a *Assistant) Classify(text string) models.Category {
	return a.classifier.Classify(text)
}

// Answer classifies text and returns the canned response. Confidence is the
// knowledge base's fixed value for the category, not the posterior; the
// posterior is reported separately.
func (a *Assistant) Answer(text string) models.ClassifiedAnswer {
	category, posterior := a.classifier.Predict(text)
	entry, ok := a.kb.Lookup(category)
	if !ok {
		fallback := a.kb.Fallback()
		return models.ClassifiedAnswer{
			Response:   fallback.Response,
			Confidence: fallback.Confidence,
			Category:   models.CategoryUnknown,
			Posterior:  posterior,
		}
	}
	return models.ClassifiedAnswer{
		Response:   entry.Response,
		Confidence: entry.Confidence,
		Category:   category,
		Posterior:  posterior,
	}
}
