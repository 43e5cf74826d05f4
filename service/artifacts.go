package service

import (
	"context"
	"time"

	"github.com/vocdoni/privacy-pool/verifier"
	"golang.org/x/sync/errgroup"
)

// DownloadArtifacts loads the circuit artifacts from the local cache,
// downloading concurrently the ones that are missing.
func DownloadArtifacts(timeout time.Duration, artifacts ...*verifier.Artifact) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			return a.LoadOrDownload(ctx)
		})
	}
	return g.Wait()
}
