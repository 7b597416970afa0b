package thoughtbot

// NLUIntent is one classified intent with its confidence score in [0, 1].
type NLUIntent struct {
	ID    string
	Score float64
}

// NLUEntity is one extracted entity.
type NLUEntity struct {
	Name  string
	Value string
}

// NLUResult is the core's normalised view of an NLUAdapter's raw,
// provider-shaped response. Branches match against it through Match rather
// than reaching into Raw directly, keeping branch callbacks provider-agnostic.
type NLUResult struct {
	Intents   []NLUIntent
	Entities  []NLUEntity
	Language  string
	Sentiment string
	Raw       map[string]any
}

// Empty reports whether the result carries no intents, entities, language,
// or sentiment — the "no result" case an NLUAdapter signals per its contract.
func (r NLUResult) Empty() bool {
	return len(r.Intents) == 0 && len(r.Entities) == 0 && r.Language == "" && r.Sentiment == ""
}

// Match reports whether any intent in the result has the given id and a
// score at least minScore.
func (r NLUResult) Match(intentID string, minScore float64) bool {
	for _, in := range r.Intents {
		if in.ID == intentID && in.Score >= minScore {
			return true
		}
	}
	return false
}

// Entity returns the value of the named entity and whether it was present.
func (r NLUResult) Entity(name string) (string, bool) {
	for _, e := range r.Entities {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}
