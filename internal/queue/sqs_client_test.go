package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSClientSend(t *testing.T) {
	tests := []struct {
		name      string
		queueURL  string
		wantDedup bool
	}{
		{name: "standard", queueURL: "https://sqs.us-east-1.amazonaws.com/1/generations"},
		{name: "fifo", queueURL: "https://sqs.us-east-1.amazonaws.com/1/generations.fifo", wantDedup: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sender := &fakeSender{}
			client := &SQSClient{client: sender, queueURL: tt.queueURL}

			err := client.Send(context.Background(), Message{Key: "abc", UserID: "user_12345678", Version: MessageVersion})
			if err != nil {
				t.Fatalf("Send: %v", err)
			}
			if len(sender.inputs) != 1 {
				t.Fatalf("expected one send, got %d", len(sender.inputs))
			}
			in := sender.inputs[0]
			if aws.ToString(in.QueueUrl) != tt.queueURL {
				t.Fatalf("unexpected queue url %q", aws.ToString(in.QueueUrl))
			}
			if !strings.Contains(aws.ToString(in.MessageBody), `"key":"abc"`) {
				t.Fatalf("unexpected body %s", aws.ToString(in.MessageBody))
			}
			if got := aws.ToString(in.MessageDeduplicationId) == "abc"; got != tt.wantDedup {
				t.Fatalf("dedup id = %q, want set=%v", aws.ToString(in.MessageDeduplicationId), tt.wantDedup)
			}
		})
	}
}

func TestSQSClientSendError(t *testing.T) {
	client := &SQSClient{client: &fakeSender{err: errors.New("throttled")}, queueURL: "q"}
	err := client.Send(context.Background(), Message{Key: "abc"})
	if err == nil || !strings.Contains(err.Error(), "sqs send message") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
