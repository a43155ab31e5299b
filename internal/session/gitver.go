package session

import (
	"github.com/go-git/go-git/v5"
)

// CodeVersion returns the short commit hash of the repository containing dir,
// or "unknown" when dir is not inside a git repository. The version is
// recorded in session metadata so a report can be tied to the code that
// produced it.
func CodeVersion(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "unknown"
	}
	head, err := repo.Head()
	if err != nil {
		return "unknown"
	}
	return head.Hash().String()[:7]
}
