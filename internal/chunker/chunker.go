// Package chunker splits plain text into bounded-size chunks along sentence
// boundaries.
//
// A sentence unit ends at a run of '.', '!' or '?', or at a blank line.
// Newlines inside a unit collapse to single spaces. This delimiter set is
// fixed; chunk sizes are counted in runes.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceRe  = regexp.MustCompile(`[^.!?]+[.!?]*|[.!?]+`)
)

// Split breaks text into chunks of at most maxSize characters. Consecutive
// sentence units are accumulated greedily; a unit that alone exceeds maxSize
// becomes its own oversized chunk rather than being split mid-sentence.
// Consecutive chunks do not overlap, and concatenating them in order
// reproduces the sentence sequence of the input. Empty or whitespace-only
// input yields no chunks.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		return nil
	}

	var chunks []string
	var current string
	for _, unit := range splitUnits(text) {
		if current == "" {
			current = unit
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(unit) > maxSize {
			chunks = append(chunks, current)
			current = unit
			continue
		}
		current += " " + unit
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func splitUnits(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var units []string
	for _, block := range blankLineRe.Split(text, -1) {
		block = strings.Join(strings.Fields(block), " ")
		if block == "" {
			continue
		}
		for _, unit := range sentenceRe.FindAllString(block, -1) {
			unit = strings.TrimSpace(unit)
			if unit != "" {
				units = append(units, unit)
			}
		}
	}
	return units
}
