package transcript

import (
	"context"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
)

// Processor runs the full transcript stage: download, segment, embed.
// Vectors are not persisted yet; callers receive only summary counts so the
// workflow state stays small.
type Processor struct {
	fetcher  *Fetcher
	embedder *Embedder
	logger   log.Logger
}

// NewProcessor ...
func NewProcessor(fetcher *Fetcher, embedder *Embedder, logger log.Logger) *Processor {
	return &Processor{
		fetcher:  fetcher,
		embedder: embedder,
		logger:   logger,
	}
}

// Process fetches the transcript behind transcriptURL, parses it into
// speaker segments, and embeds each segment. mediaURI is carried through as
// source metadata on the embeddings.
func (p *Processor) Process(ctx context.Context, transcriptURL, mediaURI string) (segmentCount, embeddingCount int, err error) {
	if transcriptURL == "" {
		return 0, 0, fault.NewValidationError("transcriptUrl is required")
	}

	document, err := p.fetcher.Fetch(ctx, transcriptURL)
	if err != nil {
		return 0, 0, err
	}

	segments := ParseSegments(document)
	p.logger.Infof("Parsed %d speaker segments from transcript", len(segments))

	embeddings, err := p.embedder.EmbedSegments(ctx, segments, mediaURI)
	if err != nil {
		return len(segments), 0, err
	}

	if len(embeddings) > 0 {
		sample := embeddings[0]
		p.logger.Debugf("Sample embedding: speaker=%s dim=%d start=%ds", sample.Speaker, len(sample.Vector), sample.StartSecond)
	}

	return len(segments), len(embeddings), nil
}
