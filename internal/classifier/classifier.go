// Package classifier routes free-text questions to a topic category with a
// multinomial naive-Bayes model and answers them from a static knowledge base.
package classifier

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netdoctor/netdoctor/internal/models"
)

//go:embed data/corpus.yaml
var defaultCorpus []byte

// Corpus is the labelled training set.
type Corpus struct {
	Categories []CorpusCategory `yaml:"categories"`
}

// CorpusCategory holds the example documents of one category.
type CorpusCategory struct {
	Name      string   `yaml:"name"`
	Documents []string `yaml:"documents"`
}

// DefaultCorpus returns the built-in training set.
func DefaultCorpus() (Corpus, error) {
	return ParseCorpus(defaultCorpus)
}

// LoadCorpus reads a YAML corpus from path, or the built-in one when path is empty.
func LoadCorpus(path string) (Corpus, error) {
	if path == "" {
		return DefaultCorpus()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("read corpus: %w", err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes a YAML corpus.
func ParseCorpus(data []byte) (Corpus, error) {
	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return Corpus{}, fmt.Errorf("parse corpus: %w", err)
	}
	return corpus, nil
}

// Score is the posterior probability of one category.
type Score struct {
	Category    models.Category
	Probability float64
}

// Classifier is a trained model. It is never modified after Train returns and
// is safe for concurrent use.
type Classifier struct {
	categories  []models.Category
	docCounts   map[models.Category]int
	tokenCounts map[models.Category]map[string]int
	tokenTotals map[models.Category]int
	vocabulary  map[string]struct{}
	totalDocs   int
}

// Train builds a classifier from the corpus. Category order in the corpus
// decides ties.
func Train(corpus Corpus) (*Classifier, error) {
	c := &Classifier{
		docCounts:   make(map[models.Category]int),
		tokenCounts: make(map[models.Category]map[string]int),
		tokenTotals: make(map[models.Category]int),
		vocabulary:  make(map[string]struct{}),
	}

	for _, cat := range corpus.Categories {
		category := models.ParseCategory(cat.Name)
		if category == models.CategoryUnknown {
			return nil, fmt.Errorf("corpus category %q is not a trainable category", cat.Name)
		}
		if _, seen := c.tokenCounts[category]; !seen {
			c.categories = append(c.categories, category)
			c.tokenCounts[category] = make(map[string]int)
		}
		for _, doc := range cat.Documents {
			c.docCounts[category]++
			c.totalDocs++
			for _, tok := range Tokenize(doc) {
				c.tokenCounts[category][tok]++
				c.tokenTotals[category]++
				c.vocabulary[tok] = struct{}{}
			}
		}
	}

	if c.totalDocs == 0 {
		return nil, fmt.Errorf("corpus has no documents")
	}
	return c, nil
}

// Categories returns the trained categories in corpus order.
func (c *Classifier) Categories() []models.Category {
	return append([]models.Category(nil), c.categories...)
}

// Scores returns the posterior for every trained category in corpus order.
// Text sharing no vocabulary with the corpus yields nil.
func (c *Classifier) Scores(text string) []Score {
	tokens := c.known(Tokenize(text))
	if len(tokens) == 0 {
		return nil
	}

	vocab := float64(len(c.vocabulary))
	logs := make([]float64, len(c.categories))
	maxLog := math.Inf(-1)
	for i, category := range c.categories {
		lp := math.Log(float64(c.docCounts[category]) / float64(c.totalDocs))
		denom := float64(c.tokenTotals[category]) + vocab
		for _, tok := range tokens {
			lp += math.Log((float64(c.tokenCounts[category][tok]) + 1) / denom)
		}
		logs[i] = lp
		if lp > maxLog {
			maxLog = lp
		}
	}

	var sum float64
	scores := make([]Score, len(c.categories))
	for i, category := range c.categories {
		p := math.Exp(logs[i] - maxLog)
		scores[i] = Score{Category: category, Probability: p}
		sum += p
	}
	for i := range scores {
		scores[i].Probability /= sum
	}
	return scores
}

// Predict returns the most probable category and its posterior, or unknown
// with zero probability when the text shares no vocabulary with the corpus.
func (c *Classifier) Predict(text string) (models.Category, float64) {
	scores := c.Scores(text)
	if len(scores) == 0 {
		return models.CategoryUnknown, 0
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Probability > best.Probability {
			best = s
		}
	}
	return best.Category, best.Probability
}

// Classify returns the most probable category for text.
func (c *Classifier) Classify(text string) models.Category {
	category, _ := c.Predict(text)
	return category
}

func (c *Classifier) known(tokens []string) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		if _, ok := c.vocabulary[tok]; ok {
			out = append(out, tok)
		}
	}
	return out
}
