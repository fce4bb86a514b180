package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// Trainers print lines like "Iteration 1200/30000 ...". The pair may appear
// anywhere in the line; anything unparseable is ignored.
var reIterPair = regexp.MustCompile(`^(\d+)/(\d+)$`)

// TrainProgress parses trainer output into a (current, total) step pair.
func TrainProgress(line string) (current, total int, ok bool) {
	if !strings.Contains(line, "Iteration") {
		return 0, 0, false
	}
	for _, tok := range strings.Fields(line) {
		m := reIterPair.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		cur, err1 := strconv.Atoi(m[1])
		tot, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || tot == 0 {
			continue
		}
		return cur, tot, true
	}
	return 0, 0, false
}
