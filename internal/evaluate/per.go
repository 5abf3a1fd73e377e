// Package evaluate scores the model resolver against a pronunciation
// dictionary.
package evaluate

import "github.com/chaz8081/ttsdict/internal/phoneme"

// PERResult holds detailed phoneme error rate results.
type PERResult struct {
	PER           float64 // Phoneme Error Rate (0.0 = perfect, 1.0+ = very bad)
	Substitutions int     // Phonemes replaced with different phonemes
	Insertions    int     // Extra phonemes in hypothesis
	Deletions     int     // Phonemes missing from hypothesis
	RefPhonemes   int     // Total phonemes in reference
}

// Add accumulates counts from r.
func (p *PERResult) Add(r PERResult) {
	p.Substitutions += r.Substitutions
	p.Insertions += r.Insertions
	p.Deletions += r.Deletions
	p.RefPhonemes += r.RefPhonemes
	if p.RefPhonemes > 0 {
		p.PER = float64(p.Substitutions+p.Insertions+p.Deletions) / float64(p.RefPhonemes)
	}
}

// ComputePER calculates the phoneme error rate between a reference and a
// hypothesis. Phonemes compare by display form, so accent differences count
// as substitutions.
// PER = (Substitutions + Insertions + Deletions) / ReferencePhonemeCount.
func ComputePER(reference, hypothesis []phoneme.Phoneme) PERResult {
	ref := displayForms(reference)
	hyp := displayForms(hypothesis)

	n := len(ref)
	if n == 0 {
		return PERResult{}
	}

	m := len(hyp)

	// DP table for minimum edit distance.
	d := make([][]int, n+1)
	for i := range d {
		d[i] = make([]int, m+1)
		d[i][0] = i // deleting all ref phonemes
	}
	for j := 0; j <= m; j++ {
		d[0][j] = j // inserting all hyp phonemes
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if ref[i-1] == hyp[j-1] {
				d[i][j] = d[i-1][j-1]
			} else {
				d[i][j] = min(d[i-1][j-1], d[i-1][j], d[i][j-1]) + 1
			}
		}
	}

	// Backtrace to count substitutions, insertions, deletions.
	var subs, ins, dels int
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && ref[i-1] == hyp[j-1]:
			i--
			j--
		case i > 0 && j > 0 && d[i][j] == d[i-1][j-1]+1:
			subs++
			i--
			j--
		case i > 0 && d[i][j] == d[i-1][j]+1:
			dels++
			i--
		default:
			ins++
			j--
		}
	}

	return PERResult{
		PER:           float64(subs+ins+dels) / float64(n),
		Substitutions: subs,
		Insertions:    ins,
		Deletions:     dels,
		RefPhonemes:   n,
	}
}

func displayForms(ps []phoneme.Phoneme) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
