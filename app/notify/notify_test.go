package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/go-pkgz/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/ctlbackup/app/notify/mocks"
)

func TestService_EmptyDestinations(t *testing.T) {
	assert.Nil(t, NewService(Params{}))
}

func TestNewService(t *testing.T) {
	svc := NewService(Params{ToEmails: []string{"ops@example.com"}, FromEmail: "ctlbackup@host",
		WebhookURLs: []string{"https://hooks.example.com/x"}})
	require.NotNil(t, svc)
	require.Len(t, svc.destinations, 2)
	assert.Equal(t, "mailto", svc.destinations[0].Schema())
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name           string
		subj           string
		text           string
		destination    string
		mockSendErr    error
		expectedErrMsg string
	}{
		{
			name:        "successful send",
			subj:        "backup of LINE1: 1 of 3 robots failed",
			text:        "B: failed, can't connect",
			destination: "mailto:to@example.com,to2@example.com?from=from%40example.com&subject=backup+of+LINE1%3A+1+of+3+robots+failed",
		},
		{
			name:           "send error",
			subj:           "Problem",
			text:           "Problem Text",
			destination:    "mailto:to@example.com,to2@example.com?from=from%40example.com&subject=Problem",
			mockSendErr:    errors.New("mock error"),
			expectedErrMsg: "mock error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailtoNotifier := &mocks.NotifierMock{
				SendFunc: func(_ context.Context, dest string, text string) error {
					assert.Equal(t, tt.text, text)
					assert.Equal(t, tt.destination, dest)
					return tt.mockSendErr
				},
				SchemaFunc: func() string { return "mailto" },
				StringFunc: func() string { return "email" },
			}

			s := Service{
				destinations: []notify.Notifier{mailtoNotifier},
				fromEmail:    "from@example.com",
				toEmail:      []string{"to@example.com", "to2@example.com"},
			}

			err := s.Send(context.Background(), tt.subj, tt.text)
			assert.Len(t, mailtoNotifier.SendCalls(), 1)
			if tt.expectedErrMsg == "" {
				require.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErrMsg)
			}
		})
	}
}

func TestService_SendWebhook(t *testing.T) {
	hook := &mocks.NotifierMock{
		SendFunc:   func(context.Context, string, string) error { return nil },
		SchemaFunc: func() string { return "http" },
		StringFunc: func() string { return "webhook" },
	}
	s := Service{destinations: []notify.Notifier{hook}, webhooks: []string{"http://example.com/hook"}}
	require.NoError(t, s.Send(context.Background(), "subj", "text"))
	require.Len(t, hook.SendCalls(), 1)
	assert.Equal(t, "http://example.com/hook", hook.SendCalls()[0].Destination)
	assert.Equal(t, "subj\n\ntext", hook.SendCalls()[0].Text)
}
