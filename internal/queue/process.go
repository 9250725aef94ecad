package queue

import (
	"context"
	"encoding/json"
	"fmt"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"

	"github.com/Rithanya654/Generic-RAG/internal/storage"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graph"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

// IndexJobMsg is one queued indexing job. Path is either a local file path
// (CLI-enqueued) or an s3:// object reference (API-enqueued).
type IndexJobMsg struct {
	JobID string `json:"job_id"`
	DocID string `json:"doc_id"`
	Path  string `json:"path"`
	Clear bool   `json:"clear"`
}

// PublishIndexJob enqueues an indexing job with a fresh job id and returns
// the id.
func PublishIndexJob(ch *amqp091.Channel, docID, path string, clear bool) (string, error) {
	jobID, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}

	msg := IndexJobMsg{
		JobID: jobID,
		DocID: docID,
		Path:  path,
		Clear: clear,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal index job: %w", err)
	}

	if err := Publish(ch, IndexQueue, raw); err != nil {
		return "", fmt.Errorf("failed to publish index job: %w", err)
	}
	return jobID, nil
}

// ProcessIndexMessage runs one indexing job end to end: fetch the document,
// parse it, and run the pipeline. A returned error sends the delivery to
// the retry path.
func ProcessIndexMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	pipeline *graph.Pipeline,
	msg []byte,
) error {
	var job IndexJobMsg
	if err := json.Unmarshal(msg, &job); err != nil {
		return fmt.Errorf("failed to parse index job: %w", err)
	}

	docID := job.DocID
	if docID == "" {
		docID = graph.DocIDFromPath(job.Path)
	}
	logger.Info("[Queue] processing index job", "job", job.JobID, "doc", docID)

	parser := document.NewJSONParser()
	var (
		parsed *document.Parsed
		err    error
	)
	if storage.IsS3Path(job.Path) {
		if s3Client == nil {
			return fmt.Errorf("job %s needs S3 but no client is configured", job.JobID)
		}
		raw, getErr := storage.GetFile(ctx, s3Client, storage.KeyFromPath(job.Path))
		if getErr != nil {
			return getErr
		}
		parsed, err = parser.ParseBytes(raw)
	} else {
		parsed, err = parser.Parse(job.Path)
	}
	if err != nil {
		return err
	}

	_, err = pipeline.Run(ctx, parsed, graph.RunParams{DocID: docID, Clear: job.Clear})
	return err
}
