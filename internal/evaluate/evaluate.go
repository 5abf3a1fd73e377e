package evaluate

import (
	"log/slog"

	"github.com/chaz8081/ttsdict/internal/phoneme"
	"github.com/chaz8081/ttsdict/internal/resolve"
)

// Lexicon is a reference pronunciation source. *resolve.Dictionary
// implements it.
type Lexicon interface {
	Words() []string
	Resolve(word string) ([]phoneme.Phoneme, bool)
}

// Mismatch is one word the resolver got wrong.
type Mismatch struct {
	Word     string
	Want     string
	Got      string // empty when the resolver declined
	Declined bool
}

// Report summarizes an evaluation run.
type Report struct {
	PERResult
	Words      int
	Exact      int
	Declined   int
	Mismatches []Mismatch
}

// Accuracy returns the fraction of words resolved exactly.
func (r *Report) Accuracy() float64 {
	if r.Words == 0 {
		return 0
	}
	return float64(r.Exact) / float64(r.Words)
}

// Run resolves the lexicon's words, in sorted order, through r and scores
// the results against the lexicon. limit > 0 caps the number of words.
// Declined words count as deleting every reference phoneme.
func Run(lex Lexicon, r resolve.Resolver, limit int) Report {
	words := lex.Words()
	if limit > 0 && limit < len(words) {
		words = words[:limit]
	}

	var rep Report
	for _, w := range words {
		want, ok := lex.Resolve(w)
		if !ok {
			continue
		}
		rep.Words++

		got, ok := r.Resolve(resolve.Canonical(w))
		if !ok {
			rep.Declined++
			rep.Add(ComputePER(want, nil))
			rep.Mismatches = append(rep.Mismatches, Mismatch{Word: w, Want: phoneme.Render(want), Declined: true})
			continue
		}

		res := ComputePER(want, got)
		rep.Add(res)
		if res.Substitutions+res.Insertions+res.Deletions == 0 {
			rep.Exact++
			continue
		}
		rep.Mismatches = append(rep.Mismatches, Mismatch{Word: w, Want: phoneme.Render(want), Got: phoneme.Render(got)})
	}

	slog.Debug("evaluate: done", "words", rep.Words, "exact", rep.Exact, "declined", rep.Declined, "per", rep.PER)
	return rep
}
