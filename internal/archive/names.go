package archive

import (
	"fmt"
	"strings"
)

// ResolveNames returns the archive entry name for each file, by position.
//
// The first occurrence of a name is kept. Later occurrences get " (n)"
// inserted before the final extension ("a.tar.gz" -> "a.tar (1).gz"), or
// appended when there is none ("README" -> "README (1)"). Counters are kept
// per original name, start at 1, and only move forward. A counter whose
// result would clash with a name already in the archive is skipped.
func ResolveNames(files []File) []string {
	resolved := make([]string, len(files))
	next := make(map[string]int, len(files))
	used := make(map[string]struct{}, len(files))

	for i, f := range files {
		name := f.Name
		n, seen := next[name]
		if !seen {
			if _, taken := used[name]; !taken {
				next[name] = 1
				used[name] = struct{}{}
				resolved[i] = name
				continue
			}
			n = 1
		}

		candidate := withCounter(name, n)
		for {
			if _, taken := used[candidate]; !taken {
				break
			}
			n++
			candidate = withCounter(name, n)
		}
		next[name] = n + 1
		used[candidate] = struct{}{}
		resolved[i] = candidate
	}

	return resolved
}

// withCounter inserts " (n)" before the last extension of name. A leading
// dot alone (".env") does not count as an extension.
func withCounter(name string, n int) string {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return fmt.Sprintf("%s (%d)%s", name[:dot], n, name[dot:])
}
