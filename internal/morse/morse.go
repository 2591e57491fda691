// Package morse maps recognized speech text onto the tactile dot/dash
// alphabet and onto vibration timing sequences. Everything here is pure and
// total: unknown characters and emotions degrade silently instead of failing,
// so a noisy recognizer can never break the pipeline.
package morse

import (
	"math"
	"strings"
	"time"
)

const (
	// WordGap separates words inside an encoded string.
	WordGap = "/"

	dot  = '.'
	dash = '-'
)

// DefaultUnit is the short-pulse duration used when the caller does not pick
// one. Dash is 3 units, matching the 0.3s/0.7s-class timings receivers are
// trained on.
const DefaultUnit = 200 * time.Millisecond

var alphabet = map[rune]string{
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".",
	'f': "..-.", 'g': "--.", 'h': "....", 'i': "..", 'j': ".---",
	'k': "-.-", 'l': ".-..", 'm': "--", 'n': "-.", 'o': "---",
	'p': ".--.", 'q': "--.-", 'r': ".-.", 's': "...", 't': "-",
	'u': "..-", 'v': "...-", 'w': ".--", 'x': "-..-", 'y': "-.--",
	'z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

// Encode lowercases the input and maps every character through the fixed
// alphabet. Characters inside a word are joined by a single space, words by
// " / ". Characters without a pattern contribute nothing.
func Encode(text string) string {
	words := strings.Fields(strings.ToLower(text))

	encoded := make([]string, 0, len(words))
	for _, word := range words {
		letters := make([]string, 0, len(word))
		for _, r := range word {
			if pattern, ok := alphabet[r]; ok {
				letters = append(letters, pattern)
			}
		}
		if len(letters) > 0 {
			encoded = append(encoded, strings.Join(letters, " "))
		}
	}

	return strings.Join(encoded, " "+WordGap+" ")
}

// Timing converts an encoded string into an alternating
// signal/silence duration sequence:
//
//	dot   = 1 unit on
//	dash  = 3 units on
//	gap between symbols = 1 unit off
//	gap between letters = 3 units off
//	gap between words   = 7 units off
//
// Even indexes of the result are signal, odd indexes are silence. A trailing
// silence is never emitted.
func Timing(code string, unit time.Duration) []time.Duration {
	if unit <= 0 {
		unit = DefaultUnit
	}

	var seq []time.Duration

	flushGap := func(d time.Duration) {
		// collapse into pending gap so two separators never stack
		if len(seq)%2 == 1 {
			seq = append(seq, d)
		} else if len(seq) > 0 && seq[len(seq)-1] < d {
			seq[len(seq)-1] = d
		}
	}

	for _, letter := range strings.Fields(code) {
		if letter == WordGap {
			flushGap(7 * unit)
			continue
		}

		flushGap(3 * unit)

		for i, sym := range letter {
			if i > 0 {
				seq = append(seq, unit)
			}
			switch sym {
			case dot:
				seq = append(seq, unit)
			case dash:
				seq = append(seq, 3*unit)
			default:
				// unreachable for codes produced by Encode; skip the
				// separator we just wrote
				if i > 0 {
					seq = seq[:len(seq)-1]
				}
			}
		}
	}

	// drop trailing silence left by a stray separator
	if len(seq)%2 == 0 && len(seq) > 0 {
		seq = seq[:len(seq)-1]
	}

	return seq
}

// IntensityFromSamples converts normalized audio samples into a bounded
// loudness percentage: min(100, sqrt(mean(x^2)) * 100).
func IntensityFromSamples(samples []float64) int {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s * s
	}

	rms := math.Sqrt(sum/float64(len(samples))) * 100
	if rms > 100 {
		return 100
	}
	if rms < 0 {
		return 0
	}

	return int(math.Round(rms))
}

// ClampIntensity bounds an already-computed intensity to the wire range.
func ClampIntensity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ScaleForEmotion modulates rendered vibration strength. Unknown labels are
// neutral. The ordering angry > happy > neutral > sad is all receivers rely
// on.
func ScaleForEmotion(emotion string) float64 {
	switch strings.ToLower(emotion) {
	case "angry":
		return 3.0
	case "happy":
		return 2.0
	case "sad":
		return 0.5
	default:
		return 1.0
	}
}
