// Package annotate derives rough subject/predicate/object triples from retrieved
// text. The output is for display only and never feeds retrieval.
package annotate

import "strings"

// Triple is a naive (subject, predicate, object) reading of one sentence.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (t Triple) String() string {
	return "(" + t.Subject + ", " + t.Predicate + ", " + t.Object + ")"
}

// Triples splits text on periods and reads every sentence of three or more
// words as first word, second word, remaining words.
func Triples(text string) []Triple {
	var out []Triple
	for _, sentence := range strings.Split(text, ".") {
		words := strings.Fields(sentence)
		if len(words) <= 2 {
			continue
		}
		out = append(out, Triple{
			Subject:   words[0],
			Predicate: words[1],
			Object:    strings.Join(words[2:], " "),
		})
	}
	return out
}

// Relation renders an ontology-style relation label.
func Relation(subject, relation, object string) string {
	return subject + "  " + relation + "  " + object
}
