package external

import "encoding/json"

// searchResponse mirrors the catalog's search.json envelope.
type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []doc `json:"docs"`
}

// doc is a single search result document.
type doc struct {
	Title         string       `json:"title"`
	AuthorName    []string     `json:"author_name"`
	ISBN          []string     `json:"isbn"`
	Language      []string     `json:"language"`
	Subject       []string     `json:"subject"`
	FirstSentence firstSentence `json:"first_sentence"`
}

// firstSentence absorbs the three shapes the catalog emits for the
// first_sentence field: a plain string, a list of strings, or a typed
// text object with a "value" key.
type firstSentence string

func (f *firstSentence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = firstSentence(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*f = firstSentence(list[0])
		}
		return nil
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err == nil {
		*f = firstSentence(typed.Value)
		return nil
	}

	// An unexpected shape degrades to an empty sentence rather than
	// failing the whole document.
	*f = ""
	return nil
}
