package studio

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/outline"
)

// Fetcher retrieves the two payloads a move session starts from.
type Fetcher interface {
	FetchOutline(ctx context.Context) (*models.XBlockInfo, error)
	FetchAncestors(ctx context.Context, usageID string) (*models.AncestorInfo, error)
}

// Loaded is the joined result of the outline and ancestor fetches.
type Loaded struct {
	Tree  *outline.Tree
	Chain outline.AncestorChain
}

// Load fetches the outline and the ancestors of usageID concurrently and
// fails with the first error. The outline is validated before returning.
func Load(ctx context.Context, f Fetcher, usageID string) (*Loaded, error) {
	var (
		raw  *models.XBlockInfo
		info *models.AncestorInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = f.FetchOutline(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		info, err = f.FetchAncestors(gctx, usageID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("studio: load %s: %w", usageID, err)
	}

	tree, err := outline.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("studio: load %s: %w", usageID, err)
	}
	return &Loaded{Tree: tree, Chain: outline.ChainFromInfo(info)}, nil
}
