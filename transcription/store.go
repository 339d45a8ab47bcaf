package transcription

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
)

const jobNameAttribute = "TranscriptionJobName"

type dynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// JobRecord correlates a transcription job with the workflow execution
// paused on its completion.
type JobRecord struct {
	JobName       string `dynamodbav:"TranscriptionJobName"`
	Status        string `dynamodbav:"status"`
	MediaURI      string `dynamodbav:"s3_uri"`
	TaskToken     string `dynamodbav:"sftoken"`
	TranscriptURL string `dynamodbav:"transcriptUrl,omitempty"`
	MediaURL      string `dynamodbav:"mediaUrl,omitempty"`
}

// Store is the DynamoDB-backed job record store, keyed by job name.
type Store struct {
	client dynamoDBAPI
	table  string
	logger log.Logger
}

// NewStore ...
func NewStore(client *dynamodb.Client, table string, logger log.Logger) *Store {
	return newStore(client, table, logger)
}

func newStore(client dynamoDBAPI, table string, logger log.Logger) *Store {
	return &Store{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Put writes the initial job record.
func (s *Store) Put(ctx context.Context, record JobRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fault.NewProviderError("put job record", err)
	}

	s.logger.Debugf("Stored job record for %s", record.JobName)
	return nil
}

// Update applies the field map to the record via a generated SET expression
// and returns the post-update record, so the caller reads back attributes
// (the stored task token in particular) in the same round-trip.
func (s *Store) Update(ctx context.Context, jobName string, fields map[string]string) (JobRecord, error) {
	if len(fields) == 0 {
		return JobRecord{}, fmt.Errorf("no fields to update for job %s", jobName)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	attrNames := make(map[string]string, len(fields))
	attrValues := make(map[string]ddbtypes.AttributeValue, len(fields))
	assignments := make([]string, 0, len(fields))
	for i, name := range names {
		nameToken := fmt.Sprintf("#f%d", i)
		valueToken := fmt.Sprintf(":v%d", i)
		attrNames[nameToken] = name
		attrValues[valueToken] = &ddbtypes.AttributeValueMemberS{Value: fields[name]}
		assignments = append(assignments, fmt.Sprintf("%s = %s", nameToken, valueToken))
	}

	resp, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			jobNameAttribute: &ddbtypes.AttributeValueMemberS{Value: jobName},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ")),
		ExpressionAttributeNames:  attrNames,
		ExpressionAttributeValues: attrValues,
		ReturnValues:              ddbtypes.ReturnValueAllNew,
	})
	if err != nil {
		return JobRecord{}, fault.NewProviderError("update job record", err)
	}

	var record JobRecord
	if err := attributevalue.UnmarshalMap(resp.Attributes, &record); err != nil {
		return JobRecord{}, fmt.Errorf("unmarshal updated job record: %w", err)
	}

	return record, nil
}
