package member

import (
	"clanManager/domain"
	"fmt"
	"regexp"
	"strings"
)

const maxTagLength = 12

var tagPattern = regexp.MustCompile(`^[CGJLPQRUVY0289]+$`)

// ProcessTag normalises user input into a player or clan tag of the form
// #ABC123. O is read as zero since the game never uses the letter.
func ProcessTag(input string) (string, error) {
	tag := strings.ToUpper(strings.TrimSpace(input))
	tag = strings.ReplaceAll(tag, "O", "0")
	tag = strings.TrimPrefix(tag, "#")

	if len(tag) == 0 || len(tag) >= maxTagLength || !tagPattern.MatchString(tag) {
		return "", fmt.Errorf("%q: %w", input, domain.ErrInvalidTag)
	}
	return "#" + tag, nil
}
