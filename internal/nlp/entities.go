package nlp

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/factlens/backend/pkg/logger"
)

// LabelRaw marks a synthetic entity holding the whole input, used when
// the text is too short for recognition to be meaningful.
const LabelRaw = "RAW"

// Entity is one named thing found in a summary, in document order.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// EntityExtractor finds named entities in a summary.
type EntityExtractor interface {
	Extract(text string) ([]Entity, error)
}

// ProseExtractor runs in-process NER. Construct it once at startup and
// share it across requests.
type ProseExtractor struct {
	max       int
	threshold int
}

func NewProseExtractor(max, threshold int) *ProseExtractor {
	if max <= 0 {
		max = 5
	}
	return &ProseExtractor{
		max:       max,
		threshold: threshold,
	}
}

// Extract returns at most max entities in recognition order. Input at
// or below the threshold comes back as a single RAW entity so callers
// always get a slice.
func (p *ProseExtractor) Extract(text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if len(text) <= p.threshold {
		return []Entity{{Text: text, Label: LabelRaw}}, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(true),
	)
	if err != nil {
		return nil, err
	}

	var entities []Entity
	for _, ent := range doc.Entities() {
		if strings.TrimSpace(ent.Text) == "" {
			continue
		}
		entities = append(entities, Entity{Text: ent.Text, Label: ent.Label})
		if len(entities) >= p.max {
			break
		}
	}

	logger.Debug("Entities extracted",
		zap.Int("count", len(entities)),
		zap.Int("input_chars", len(text)),
	)

	return entities, nil
}
