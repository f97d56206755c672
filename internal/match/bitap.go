package match

import "unicode"

// maxPatternBits is the widest pattern one bitmask pass handles; longer
// patterns are split into chunks of this many runes.
const maxPatternBits = 32

// minScore keeps approximate matches strictly worse than exact equality.
const minScore = 0.001

type fieldMatch struct {
	isMatch bool
	score   float64
}

type patternChunk struct {
	pattern    []rune
	alphabet   map[rune]uint64
	startIndex int
}

// bitapSearcher scores one lowercased query against many texts.
type bitapSearcher struct {
	pattern []rune
	chunks  []patternChunk
	opts    *Options
}

func newBitapSearcher(query string, opts *Options) *bitapSearcher {
	pattern := foldRunes(query)
	s := &bitapSearcher{pattern: pattern, opts: opts}
	n := len(pattern)
	if n <= maxPatternBits {
		s.addChunk(pattern, 0)
		return s
	}
	remainder := n % maxPatternBits
	end := n - remainder
	for i := 0; i < end; i += maxPatternBits {
		s.addChunk(pattern[i:i+maxPatternBits], i)
	}
	if remainder > 0 {
		start := n - maxPatternBits
		s.addChunk(pattern[start:], start)
	}
	return s
}

func (s *bitapSearcher) addChunk(p []rune, startIndex int) {
	s.chunks = append(s.chunks, patternChunk{
		pattern:    p,
		alphabet:   patternAlphabet(p),
		startIndex: startIndex,
	})
}

// searchIn scores text, which must already be case folded.
func (s *bitapSearcher) searchIn(text []rune) fieldMatch {
	if equalRunes(s.pattern, text) {
		return fieldMatch{isMatch: true, score: 0}
	}
	var total float64
	matched := false
	for i := range s.chunks {
		c := &s.chunks[i]
		r := bitapSearch(text, c.pattern, c.alphabet, s.opts.Location+c.startIndex, s.opts)
		if r.isMatch {
			matched = true
		}
		total += r.score
	}
	if !matched {
		return fieldMatch{score: 1}
	}
	return fieldMatch{isMatch: true, score: total / float64(len(s.chunks))}
}

func patternAlphabet(pattern []rune) map[rune]uint64 {
	mask := make(map[rune]uint64, len(pattern))
	n := len(pattern)
	for i, r := range pattern {
		mask[r] |= 1 << uint(n-i-1)
	}
	return mask
}

// computeScore combines error ratio and distance from the expected location.
func computeScore(patternLen, errors, currentLocation, expectedLocation int, opts *Options) float64 {
	accuracy := float64(errors) / float64(patternLen)
	if opts.IgnoreLocation {
		return accuracy
	}
	proximity := currentLocation - expectedLocation
	if proximity < 0 {
		proximity = -proximity
	}
	if opts.Distance == 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(opts.Distance)
}

// bitapSearch runs the shift-or approximate matcher of pattern over text.
// The returned score is in [minScore, 1]; isMatch is false when no location
// scored within the threshold.
func bitapSearch(text, pattern []rune, alphabet map[rune]uint64, location int, opts *Options) fieldMatch {
	patternLen := len(pattern)
	textLen := len(text)
	expected := location
	if expected > textLen {
		expected = textLen
	}
	if expected < 0 {
		expected = 0
	}

	threshold := opts.Threshold
	bestLocation := expected
	computeMatches := opts.MinMatchCharLength > 1
	var matchMask []bool
	if computeMatches {
		matchMask = make([]bool, textLen)
	}

	// Exact occurrences tighten the threshold before the fuzzy passes.
	for {
		idx := indexRunes(text, pattern, bestLocation)
		if idx < 0 {
			break
		}
		score := computeScore(patternLen, 0, idx, expected, opts)
		if score < threshold {
			threshold = score
		}
		bestLocation = idx + patternLen
		if computeMatches {
			for k := 0; k < patternLen; k++ {
				matchMask[idx+k] = true
			}
		}
	}

	bestLocation = -1
	bestScore := 1.0
	var lastBitArr []uint64
	binMax := patternLen + textLen
	mask := uint64(1) << uint(patternLen-1)

	for i := 0; i < patternLen; i++ {
		// Binary search for how far from the expected location this error
		// level can still stay within the threshold.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if computeScore(patternLen, i, expected+binMid, expected, opts) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := expected - binMid + 1
		if start < 1 {
			start = 1
		}
		finish := expected + binMid
		if finish > textLen {
			finish = textLen
		}
		finish += patternLen

		bitArr := make([]uint64, finish+2)
		bitArr[finish+1] = (uint64(1) << uint(i)) - 1

		for j := finish; j >= start; j-- {
			current := j - 1
			var charMatch uint64
			if current < textLen {
				charMatch = alphabet[text[current]]
				if computeMatches {
					matchMask[current] = charMatch != 0
				}
			}
			bitArr[j] = ((bitArr[j+1] << 1) | 1) & charMatch
			if i > 0 {
				bitArr[j] |= ((bitAt(lastBitArr, j+1) | bitAt(lastBitArr, j)) << 1) | 1 | bitAt(lastBitArr, j+1)
			}
			if bitArr[j]&mask != 0 {
				score := computeScore(patternLen, i, current, expected, opts)
				if score <= threshold {
					threshold = score
					bestScore = score
					bestLocation = current
					if bestLocation <= expected {
						break
					}
					start = 2*expected - bestLocation
					if start < 1 {
						start = 1
					}
				}
			}
		}

		// No further error level can beat the current threshold.
		if computeScore(patternLen, i+1, expected, expected, opts) > threshold {
			break
		}
		lastBitArr = bitArr
	}

	if bestLocation < 0 {
		return fieldMatch{score: 1}
	}
	if computeMatches && !hasRun(matchMask, opts.MinMatchCharLength) {
		return fieldMatch{score: 1}
	}
	if bestScore < minScore {
		bestScore = minScore
	}
	return fieldMatch{isMatch: true, score: bestScore}
}

func bitAt(arr []uint64, i int) uint64 {
	if i < 0 || i >= len(arr) {
		return 0
	}
	return arr[i]
}

// hasRun reports whether mask holds at least n consecutive true values.
func hasRun(mask []bool, n int) bool {
	run := 0
	for _, m := range mask {
		if !m {
			run = 0
			continue
		}
		run++
		if run >= n {
			return true
		}
	}
	return false
}

func indexRunes(text, pattern []rune, from int) int {
	if from < 0 {
		from = 0
	}
	last := len(text) - len(pattern)
	for i := from; i <= last; i++ {
		if equalRunes(text[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func foldRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}
