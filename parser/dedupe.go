package parser

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// nearDupThreshold is the max Hamming distance at which two review bodies
// count as the same card rendered twice.
const nearDupThreshold = 3

// dedupeReviews collapses review cards the page re-appended during
// pagination. Two cards are duplicates when reviewer, title and date match
// and their body fingerprints are within the near-dup threshold. Order is
// preserved; the first occurrence wins.
func dedupeReviews(reviews []models.Review) []models.Review {
	type seenEntry struct {
		fingerprint uint64
	}
	seen := make(map[string][]seenEntry, len(reviews))
	out := reviews[:0]

	for _, r := range reviews {
		key := r.Reviewer + "\x00" + r.Title + "\x00" + r.Datetime
		fp := fingerprint(r.Text + " " + r.Pros + " " + r.Cons)

		dup := false
		for _, e := range seen[key] {
			if hammingDistance(e.fingerprint, fp) <= nearDupThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[key] = append(seen[key], seenEntry{fingerprint: fp})
		out = append(out, r)
	}
	return out
}

// fingerprint computes a 64-bit SimHash of the review body: FNV-64a over
// word tokens with bit-vector accumulation, so small render differences
// (whitespace, truncation markers) still land within a few bits.
func fingerprint(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

func hammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
