package memory

import "strings"

// matchSubject reports whether subject falls under pattern. Patterns use
// NATS wildcards: "*" stands for exactly one token, a trailing ">" for one
// or more.
func matchSubject(pattern, subject string) bool {
	if pattern == "" || subject == "" {
		return false
	}

	tokens := strings.Split(subject, ".")
	i := 0
	for _, want := range strings.Split(pattern, ".") {
		if want == ">" {
			return i < len(tokens)
		}
		if i == len(tokens) {
			return false
		}
		if want != "*" && want != tokens[i] {
			return false
		}
		i++
	}
	return i == len(tokens)
}
