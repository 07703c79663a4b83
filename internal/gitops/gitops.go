// Package gitops versions a fluxo project with the git command line.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who commits generated reports.
type Author struct {
	Name  string
	Email string
}

// Repo is a git working tree at Dir.
type Repo struct {
	Dir    string
	Author Author
}

// Open returns a Repo for dir. It does not check that dir is a repository.
func Open(dir string, author Author) *Repo {
	return &Repo{Dir: dir, Author: author}
}

// Init initializes a new git repository at r.Dir.
func (r *Repo) Init() error {
	if out, err := r.git("init").CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether r.Dir is the root of a git repository.
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Commit stages paths (all changes when empty) and commits them. Returns the
// short commit hash.
func (r *Repo) Commit(message string, paths ...string) (string, error) {
	args := []string{"add", "-A"}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	if out, err := r.git(args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	author := fmt.Sprintf("%s <%s>", r.Author.Name, r.Author.Email)
	if out, err := r.git("commit", "-m", message, "--author", author).CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := r.git("rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// git builds a command in r.Dir with the committer set to the author, so
// commits work on machines without a global git identity.
func (r *Repo) git(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.Author.Name,
		"GIT_COMMITTER_EMAIL="+r.Author.Email,
	)
	return cmd
}
