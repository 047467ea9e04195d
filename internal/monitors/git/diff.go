package git

import (
	"strings"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// diffEntry is one line of `git diff --name-status` output.
type diffEntry struct {
	changeType domain.ChangeType
	path       string
}

// parseNameStatus parses `git diff --name-status` output into entries,
// preserving line order. A is created, M is modified, D is deleted;
// any other status (copies, renames, mode changes) is treated as
// modified. For renames the post-rename path is used. Lines that do
// not look like a status entry are skipped.
func parseNameStatus(out string) []diffEntry {
	var entries []diffEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		path := fields[len(fields)-1]
		if status == "" || path == "" {
			continue
		}

		entries = append(entries, diffEntry{
			changeType: statusToChangeType(status),
			path:       path,
		})
	}
	return entries
}

func statusToChangeType(status string) domain.ChangeType {
	switch status[0] {
	case 'A':
		return domain.ChangeCreated
	case 'M':
		return domain.ChangeModified
	case 'D':
		return domain.ChangeDeleted
	default:
		return domain.ChangeModified
	}
}
