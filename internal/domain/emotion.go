package domain

// Emotion is one label from the classifier's closed output vocabulary.
type Emotion string

const (
	Angry    Emotion = "Angry"
	Disgust  Emotion = "Disgust"
	Fear     Emotion = "Fear"
	Happy    Emotion = "Happy"
	Sad      Emotion = "Sad"
	Surprise Emotion = "Surprise"
	Neutral  Emotion = "Neutral"
)

// Emotions is the canonical label order, matching the classifier's output
// vector. Statistical tie-breaks resolve to the lowest index in this list.
var Emotions = []Emotion{Angry, Disgust, Fear, Happy, Sad, Surprise, Neutral}

var emotionIndex = func() map[Emotion]int {
	m := make(map[Emotion]int, len(Emotions))
	for i, e := range Emotions {
		m[e] = i
	}
	return m
}()

// CanonicalIndex returns the label's position in the canonical order.
// Unknown labels sort after all known ones.
func (e Emotion) CanonicalIndex() int {
	if i, ok := emotionIndex[e]; ok {
		return i
	}
	return len(Emotions)
}

// PositiveEmotions and NegativeEmotions partition the vocabulary for trend
// classification. Neutral belongs to neither.
var (
	PositiveEmotions = []Emotion{Happy, Surprise}
	NegativeEmotions = []Emotion{Sad, Angry, Fear, Disgust}
)
