package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/sirupsen/logrus"
)

// GitSource fetches the role document from a file inside a git repository.
// The repository is cloned into an in-memory filesystem on the first fetch
// and pulled on every fetch after that.
type GitSource struct {
	mu   sync.Mutex
	url  *url.URL
	path string

	// Branch to check out after cloning. Empty means the remote default.
	Branch string
	// Auth is used for clone and pull when the remote requires it.
	Auth *githttp.BasicAuth

	repo *git.Repository
	fs   billy.Filesystem
}

// NewGitSource creates a GitSource for the document at path within the
// repository at rawURL.
func NewGitSource(rawURL, path string) (*GitSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	return &GitSource{url: u, path: path}, nil
}

// Fetch clones or pulls the repository and reads the document out of the
// in-memory worktree. A document missing from the worktree surfaces as the
// fs.ErrNotExist-wrapping error returned by the billy filesystem.
func (g *GitSource) Fetch(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fs == nil {
		if err := g.clone(ctx); err != nil {
			return nil, err
		}
	} else if err := g.pull(ctx); err != nil {
		return nil, err
	}

	file, err := g.fs.Open(g.path)
	if err != nil {
		return nil, err
	}
	defer func(file billy.File) {
		if err := file.Close(); err != nil {
			logrus.WithError(err).Error("error closing file")
		}
	}(file)

	return io.ReadAll(file)
}

func (g *GitSource) clone(ctx context.Context) error {
	g.fs = memfs.New()
	logrus.Debugf("cloning %s into memory", g.url)
	r, err := git.CloneContext(ctx, memory.NewStorage(), g.fs, &git.CloneOptions{
		URL:  g.url.String(),
		Auth: g.Auth,
	})
	if err != nil {
		g.fs = nil
		return err
	}

	if g.Branch != "" {
		w, err := r.Worktree()
		if err != nil {
			g.fs = nil
			return err
		}
		err = r.Fetch(&git.FetchOptions{
			RefSpecs: []config.RefSpec{"refs/*:refs/*", "HEAD:refs/heads/HEAD"},
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			g.fs = nil
			return err
		}
		err = w.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(g.Branch),
			Force:  true,
		})
		if err != nil {
			g.fs = nil
			return err
		}
	}

	g.repo = r
	return nil
}

func (g *GitSource) pull(ctx context.Context) error {
	w, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	pullOptions := &git.PullOptions{Auth: g.Auth}
	if g.Branch != "" {
		pullOptions = &git.PullOptions{
			ReferenceName: plumbing.NewBranchReferenceName(g.Branch),
			Force:         true,
			SingleBranch:  true,
			Auth:          g.Auth,
		}
	}

	err = w.PullContext(ctx, pullOptions)
	if err == git.NoErrAlreadyUpToDate {
		logrus.Debug("already up to date")
		return nil
	}
	return err
}

func (g *GitSource) Path() string {
	return g.path
}

func (g *GitSource) Name() string {
	return "git"
}
