package classifier

import "math"

// smoothing is the Laplace/Lidstone alpha applied to feature counts.
const smoothing = 1.0

// naiveBayes is a fitted multinomial naive Bayes model over TF-IDF
// features. Classes are kept in sorted order; argmax ties resolve to the
// first class in that order.
type naiveBayes struct {
	Classes        []string
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
}

// fitNaiveBayes estimates class priors and per-class feature likelihoods
// from the training vectors. classes must be sorted and labels must index
// into it via classIdx.
func fitNaiveBayes(vectors [][]float64, labels []int, classes []string, nFeatures int) *naiveBayes {
	nClasses := len(classes)
	counts := make([]float64, nClasses)
	featureSums := make([][]float64, nClasses)
	for c := range featureSums {
		featureSums[c] = make([]float64, nFeatures)
	}

	for i, vec := range vectors {
		c := labels[i]
		counts[c]++
		for j, x := range vec {
			featureSums[c][j] += x
		}
	}

	nb := &naiveBayes{
		Classes:        classes,
		ClassLogPrior:  make([]float64, nClasses),
		FeatureLogProb: make([][]float64, nClasses),
	}
	total := float64(len(vectors))
	for c := 0; c < nClasses; c++ {
		nb.ClassLogPrior[c] = math.Log(counts[c] / total)
		nb.FeatureLogProb[c] = make([]float64, nFeatures)
		classTotal := 0.0
		for _, s := range featureSums[c] {
			classTotal += s
		}
		denom := math.Log(classTotal + smoothing*float64(nFeatures))
		for j := 0; j < nFeatures; j++ {
			nb.FeatureLogProb[c][j] = math.Log(featureSums[c][j]+smoothing) - denom
		}
	}
	return nb
}

// predict returns the index of the most likely class for the feature vector.
func (nb *naiveBayes) predict(vec []float64) int {
	best := 0
	bestScore := math.Inf(-1)
	for c := range nb.Classes {
		score := nb.ClassLogPrior[c]
		for j, x := range vec {
			if x != 0 {
				score += x * nb.FeatureLogProb[c][j]
			}
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}
