package transcription

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
)

type fakeTranscribeClient struct {
	startInputs []*transcribe.StartTranscriptionJobInput
	startOutput *transcribe.StartTranscriptionJobOutput
	startErr    error

	getInputs []*transcribe.GetTranscriptionJobInput
	getOutput *transcribe.GetTranscriptionJobOutput
	getErr    error
}

func (f *fakeTranscribeClient) StartTranscriptionJob(_ context.Context, params *transcribe.StartTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.startInputs = append(f.startInputs, params)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startOutput, nil
}

func (f *fakeTranscribeClient) GetTranscriptionJob(_ context.Context, params *transcribe.GetTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	f.getInputs = append(f.getInputs, params)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOutput, nil
}

type fakeDynamoDBClient struct {
	putInputs []*dynamodb.PutItemInput
	putErr    error

	updateInputs []*dynamodb.UpdateItemInput
	updateOutput *dynamodb.UpdateItemOutput
	updateErr    error
}

func (f *fakeDynamoDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDBClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateInputs = append(f.updateInputs, params)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOutput, nil
}

type signalCall struct {
	token     string
	output    interface{}
	errorCode string
	cause     string
}

type fakeSignaler struct {
	successCalls []signalCall
	failureCalls []signalCall
	err          error
}

func (f *fakeSignaler) SignalSuccess(_ context.Context, token string, output interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.successCalls = append(f.successCalls, signalCall{token: token, output: output})
	return nil
}

func (f *fakeSignaler) SignalFailure(_ context.Context, token, errorCode, cause string) error {
	if f.err != nil {
		return f.err
	}
	f.failureCalls = append(f.failureCalls, signalCall{token: token, errorCode: errorCode, cause: cause})
	return nil
}
