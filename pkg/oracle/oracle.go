// Package oracle holds the pure parts of LLM name conversion: the
// instruction prompts and the answer hygiene rules. The network client
// that uses them lives in internal/iooracle.
package oracle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Direction selects what a conversion should produce.
type Direction int

const (
	// ToLatin converts a common name to a scientific binomial.
	ToLatin Direction = iota
	// ToCommon converts a scientific name to its most common English name.
	ToCommon
)

func (d Direction) String() string {
	if d == ToCommon {
		return "to_common"
	}
	return "to_latin"
}

// Unrecognizable is the sentinel the prompts instruct the model to
// return for names it does not know.
const Unrecognizable = "unrecognizable"

const promptToLatin = `Strictly follow 2 rules, no extra output:
1. Convert the species common name to Latin name, formatted as "Genus (capitalized first letter) + space + species epithet (lowercase)" (e.g., "domestic cat" → "Felis catus");
2. If the common name is unrecognizable, return only "unrecognizable".

Species common name: %s`

const promptToCommon = `Strictly follow 2 rules, no extra output:
1. Convert the species Latin name to its most common English name (e.g., "Felis catus" → "domestic cat");
2. If the Latin name is unrecognizable, return only "unrecognizable".

Latin name: %s`

// Prompt builds the conversion instruction for a name. The rules pin
// the answer to a single name or the Unrecognizable sentinel; everything
// else is rejected by Sanitize.
func Prompt(name string, dir Direction) string {
	if dir == ToCommon {
		return fmt.Sprintf(promptToCommon, name)
	}
	return fmt.Sprintf(promptToLatin, name)
}

var (
	// ErrEmptyAnswer means the model returned nothing usable.
	ErrEmptyAnswer = errors.New("oracle: empty answer")

	// ErrUnrecognizable means the model declared the name unknown.
	ErrUnrecognizable = errors.New("oracle: name not recognized")

	// ErrAmbiguousAnswer means the model offered several candidates.
	// A guess between candidates is worse than no answer.
	ErrAmbiguousAnswer = errors.New("oracle: ambiguous answer")
)

var (
	fenceRe = regexp.MustCompile("^```[a-zA-Z]*\\s*|\\s*```$")
	orRe    = regexp.MustCompile(`(?i)\s+or\s+`)
)

// Sanitize strips the cosmetic wrapping chat models add to answers and
// rejects answers that are not exactly one name. Markdown fences,
// emphasis, surrounding quotes and a trailing period are removed;
// empty answers, the Unrecognizable sentinel, and anything that looks
// like a list of alternatives produce an error.
func Sanitize(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = fenceRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("*", "", "_", "", "`", "").Replace(s)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyAnswer
	}
	if strings.EqualFold(s, Unrecognizable) {
		return "", ErrUnrecognizable
	}
	if strings.ContainsAny(s, "\n;,/") || orRe.MatchString(s) {
		return "", ErrAmbiguousAnswer
	}
	return strings.Join(strings.Fields(s), " "), nil
}
