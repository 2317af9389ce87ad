// Package classifier implements the trainable query-to-domain classifier:
// a TF-IDF feature transform feeding a multinomial naive Bayes model, with
// gob persistence of the fitted pipeline.
package classifier

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"domain-chat-go/internal/model"
	"domain-chat-go/pkg/log"
)

var (
	// ErrNotTrained is returned when inference is attempted before a fit
	// or a successful reload.
	ErrNotTrained = errors.New("classifier: not trained")
	// ErrInsufficientLabels is returned when the corpus holds fewer than
	// two distinct domain labels.
	ErrInsufficientLabels = errors.New("classifier: need at least 2 distinct domain labels")
	// ErrModelNotFound is returned by Reload when no persisted pipeline
	// exists at the configured path.
	ErrModelNotFound = errors.New("classifier: no persisted pipeline found")
)

// pipeline is one fitted vectorizer+model unit. It is immutable after fit;
// retraining replaces it wholesale so concurrent readers never observe a
// partially fitted state.
type pipeline struct {
	Vectorizer *vectorizer
	Model      *naiveBayes
}

// Classifier routes a query string to a domain label. The zero state is
// untrained; Fit or Reload move it to trained.
type Classifier struct {
	modelPath string
	testSize  float64
	seed      int64

	mu sync.RWMutex
	p  *pipeline
}

// New creates an untrained Classifier persisting to modelPath.
// testSize is the holdout fraction and seed fixes the train/holdout split.
func New(modelPath string, testSize float64, seed int64) *Classifier {
	return &Classifier{
		modelPath: modelPath,
		testSize:  testSize,
		seed:      seed,
	}
}

// Fit trains the pipeline on the (query, domain) pairs of the records,
// evaluates it on a held-out split, and persists the fitted unit.
func (c *Classifier) Fit(records []model.Record) error {
	labels := make(map[string]struct{})
	for _, rec := range records {
		labels[rec.Domain] = struct{}{}
	}
	if len(labels) < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientLabels, len(labels))
	}

	train, holdout := split(records, c.testSize, c.seed)
	log.Infof("[Classifier] data split, train size: %d, holdout size: %d", len(train), len(holdout))

	p := fit(train)
	log.Info("[Classifier] model training completed")

	evaluate(p, holdout)

	c.mu.Lock()
	c.p = p
	c.mu.Unlock()

	return c.Persist()
}

// Predict returns the domain label for the query. Fails with ErrNotTrained
// before a fit or reload.
func (c *Classifier) Predict(query string) (string, error) {
	c.mu.RLock()
	p := c.p
	c.mu.RUnlock()
	if p == nil {
		return "", ErrNotTrained
	}
	vec := p.Vectorizer.transform(query)
	return p.Model.Classes[p.Model.predict(vec)], nil
}

// Trained reports whether the classifier holds a fitted pipeline.
func (c *Classifier) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.p != nil
}

// Persist writes the fitted pipeline as a single gob blob at the model path.
func (c *Classifier) Persist() error {
	c.mu.RLock()
	p := c.p
	c.mu.RUnlock()
	if p == nil {
		return ErrNotTrained
	}

	if dir := filepath.Dir(c.modelPath); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	f, err := os.Create(c.modelPath)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	log.Infof("[Classifier] pipeline saved at %s", c.modelPath)
	return nil
}

// Reload replaces the in-memory pipeline with the persisted one.
func (c *Classifier) Reload() error {
	f, err := os.Open(c.modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, c.modelPath)
		}
		return fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	var p pipeline
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return fmt.Errorf("failed to decode pipeline: %w", err)
	}

	c.mu.Lock()
	c.p = &p
	c.mu.Unlock()
	log.Infof("[Classifier] pipeline loaded from %s", c.modelPath)
	return nil
}

// split shuffles the records with the fixed seed and carves off the holdout
// fraction. The same seed over the same records always yields the same split.
func split(records []model.Record, testSize float64, seed int64) (train, holdout []model.Record) {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nHoldout := int(math.Ceil(float64(len(records)) * testSize))
	if nHoldout >= len(records) {
		nHoldout = len(records) - 1
	}
	for i, j := range idx {
		if i < nHoldout {
			holdout = append(holdout, records[j])
		} else {
			train = append(train, records[j])
		}
	}
	return train, holdout
}

// fit builds the vectorizer over the training queries and fits the naive
// Bayes model on the resulting TF-IDF vectors.
func fit(train []model.Record) *pipeline {
	queries := make([]string, len(train))
	for i, rec := range train {
		queries[i] = rec.Query
	}
	v := fitVectorizer(queries)

	classSet := make(map[string]struct{})
	for _, rec := range train {
		classSet[rec.Domain] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for class := range classSet {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	classIdx := make(map[string]int, len(classes))
	for i, class := range classes {
		classIdx[class] = i
	}

	vectors := make([][]float64, len(train))
	labels := make([]int, len(train))
	for i, rec := range train {
		vectors[i] = v.transform(rec.Query)
		labels[i] = classIdx[rec.Domain]
	}

	return &pipeline{
		Vectorizer: v,
		Model:      fitNaiveBayes(vectors, labels, classes, len(v.IDF)),
	}
}

// evaluate logs accuracy and per-class precision/recall/F1 on the holdout.
// Metrics are informational only; training never fails on low scores.
func evaluate(p *pipeline, holdout []model.Record) {
	if len(holdout) == 0 {
		log.Warnf("[Classifier] empty holdout split, skipping evaluation")
		return
	}

	type counts struct{ tp, fp, fn int }
	perClass := make(map[string]*counts)
	correct := 0
	for _, rec := range holdout {
		pred := p.Model.Classes[p.Model.predict(p.Vectorizer.transform(rec.Query))]
		if perClass[rec.Domain] == nil {
			perClass[rec.Domain] = &counts{}
		}
		if perClass[pred] == nil {
			perClass[pred] = &counts{}
		}
		if pred == rec.Domain {
			correct++
			perClass[pred].tp++
		} else {
			perClass[pred].fp++
			perClass[rec.Domain].fn++
		}
	}
	log.Infof("[Classifier] holdout accuracy: %.4f", float64(correct)/float64(len(holdout)))

	classes := make([]string, 0, len(perClass))
	for class := range perClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		cnt := perClass[class]
		precision := ratio(cnt.tp, cnt.tp+cnt.fp)
		recall := ratio(cnt.tp, cnt.tp+cnt.fn)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		log.Infof("[Classifier] class %q precision: %.4f, recall: %.4f, f1: %.4f, support: %d",
			class, precision, recall, f1, cnt.tp+cnt.fn)
	}
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
