package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/google/uuid"

	"github.com/lecturely/ingest/fault"
)

const (
	// DefaultEmbeddingModelID is the Titan Embed Text v2 model.
	DefaultEmbeddingModelID = "amazon.titan-embed-text-v2:0"
	// DefaultEmbeddingDim ...
	DefaultEmbeddingDim = 1024

	jsonContentType = "application/json"
)

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// titanEmbedRequest is the Titan Embed Text v2 request shape.
type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type titanEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embedding is one segment's vector with its provenance metadata.
type Embedding struct {
	ID          string    `json:"id"`
	Vector      []float64 `json:"embedding"`
	Text        string    `json:"text"`
	StartSecond int       `json:"start_second"`
	Speaker     string    `json:"speaker"`
	Source      string    `json:"source"`
	SourceURI   string    `json:"source_uri"`
	ModelID     string    `json:"model_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Embedder generates text embeddings through the Bedrock runtime.
type Embedder struct {
	client  bedrockAPI
	modelID string
	dim     int
	newID   func() string
	clock   func() time.Time
	logger  log.Logger
}

// NewEmbedder ...
func NewEmbedder(client *bedrockruntime.Client, modelID string, dim int, logger log.Logger) *Embedder {
	return newEmbedder(client, modelID, dim, uuid.NewString, time.Now, logger)
}

func newEmbedder(client bedrockAPI, modelID string, dim int, newID func() string, clock func() time.Time, logger log.Logger) *Embedder {
	return &Embedder{
		client:  client,
		modelID: modelID,
		dim:     dim,
		newID:   newID,
		clock:   clock,
		logger:  logger,
	}
}

// EmbedSegments generates one normalized embedding per segment. The source
// filename is derived from sourceURI and carried as metadata on every result.
func (e *Embedder) EmbedSegments(ctx context.Context, segments []Segment, sourceURI string) ([]Embedding, error) {
	source := ""
	if sourceURI != "" {
		source = path.Base(sourceURI)
	}

	embeddings := make([]Embedding, 0, len(segments))
	for _, segment := range segments {
		vector, err := e.embedText(ctx, segment.Text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, Embedding{
			ID:          e.newID(),
			Vector:      vector,
			Text:        segment.Text,
			StartSecond: segment.StartSecond,
			Speaker:     segment.Speaker,
			Source:      source,
			SourceURI:   sourceURI,
			ModelID:     e.modelID,
			CreatedAt:   e.clock().UTC(),
		})
	}

	e.logger.Infof("Generated %d embeddings with %s", len(embeddings), e.modelID)
	return embeddings, nil
}

func (e *Embedder) embedText(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(titanEmbedRequest{
		InputText:  text,
		Dimensions: e.dim,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String(jsonContentType),
		Accept:      aws.String(jsonContentType),
		Body:        body,
	})
	if err != nil {
		return nil, fault.NewProviderError("invoke embedding model", err)
	}

	var parsed titanEmbedResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	return parsed.Embedding, nil
}
