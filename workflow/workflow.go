// Package workflow wraps the Step Functions side of the pipeline: starting
// one execution per ingested video and signaling paused executions through
// the task-token pattern.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
	"github.com/lecturely/ingest/internal/s3uri"
)

const executionNamePrefix = "s3-trigger"

type startExecutionAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

type taskSignalAPI interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
	SendTaskFailure(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error)
}

// pipelineInput is the execution input contract consumed by the transcription
// step. The sftoken field is overwritten by the state machine with the real
// task token before the step runs.
type pipelineInput struct {
	S3URI   string `json:"s3_uri"`
	SFToken string `json:"sftoken"`
}

// Starter starts pipeline executions for newly stored videos.
type Starter struct {
	client          startExecutionAPI
	stateMachineARN string
	clock           func() time.Time
	logger          log.Logger
}

// NewStarter ...
func NewStarter(client *sfn.Client, stateMachineARN string, clock func() time.Time, logger log.Logger) *Starter {
	return newStarter(client, stateMachineARN, clock, logger)
}

func newStarter(client startExecutionAPI, stateMachineARN string, clock func() time.Time, logger log.Logger) *Starter {
	return &Starter{
		client:          client,
		stateMachineARN: stateMachineARN,
		clock:           clock,
		logger:          logger,
	}
}

// StartVideoPipeline starts one execution for the object. The execution name
// is s3-trigger-{unix seconds}-{first 6 chars of the filename}, keeping runs
// identifiable in the console while staying within the name length limit.
func (s *Starter) StartVideoPipeline(ctx context.Context, bucket, key string) (string, error) {
	filename := path.Base(key)
	prefix := filename
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	runID := fmt.Sprintf("%d-%s", s.clock().Unix(), prefix)

	input, err := json.Marshal(pipelineInput{
		S3URI:   s3uri.Format(bucket, key),
		SFToken: runID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal execution input: %w", err)
	}

	resp, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.stateMachineARN),
		Name:            aws.String(fmt.Sprintf("%s-%s", executionNamePrefix, runID)),
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return "", fault.NewProviderError("start workflow execution", err)
	}

	executionARN := aws.ToString(resp.ExecutionArn)
	s.logger.Infof("Started execution %s for s3://%s/%s", executionARN, bucket, key)
	return executionARN, nil
}

// Signaler resumes paused executions by task token.
type Signaler struct {
	client taskSignalAPI
	logger log.Logger
}

// NewSignaler ...
func NewSignaler(client *sfn.Client, logger log.Logger) *Signaler {
	return newSignaler(client, logger)
}

func newSignaler(client taskSignalAPI, logger log.Logger) *Signaler {
	return &Signaler{
		client: client,
		logger: logger,
	}
}

// SignalSuccess resumes the execution waiting on token with the given output.
func (s *Signaler) SignalSuccess(ctx context.Context, token string, output interface{}) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal task output: %w", err)
	}

	_, err = s.client.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(token),
		Output:    aws.String(string(payload)),
	})
	if err != nil {
		return fault.NewProviderError("send task success", err)
	}

	s.logger.Debugf("Task success signaled")
	return nil
}

// SignalFailure fails the execution waiting on token.
func (s *Signaler) SignalFailure(ctx context.Context, token, errorCode, cause string) error {
	_, err := s.client.SendTaskFailure(ctx, &sfn.SendTaskFailureInput{
		TaskToken: aws.String(token),
		Error:     aws.String(errorCode),
		Cause:     aws.String(cause),
	})
	if err != nil {
		return fault.NewProviderError("send task failure", err)
	}

	s.logger.Debugf("Task failure signaled: %s", cause)
	return nil
}
