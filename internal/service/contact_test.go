package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/mocks"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func TestContact_Send(t *testing.T) {
	msg := model.ContactMessage{Name: "Asha", Email: "asha@example.com", Message: "Do you ship abroad?"}

	tests := []struct {
		name    string
		msg     model.ContactMessage
		reply   string
		apiErr  error
		callAPI bool
		want    string
		toast   testutil.Toast
	}{
		{
			name:  "blank message",
			msg:   model.ContactMessage{Name: "Asha", Email: "asha@example.com", Message: "  "},
			toast: testutil.Toast{Kind: testutil.KindError, Message: "Please fill in all fields"},
		},
		{
			name:    "server reply",
			msg:     msg,
			reply:   "Thanks, we will get back to you",
			callAPI: true,
			want:    "Thanks, we will get back to you",
			toast:   testutil.Toast{Kind: testutil.KindSuccess, Message: "Thanks, we will get back to you"},
		},
		{
			name:    "default reply",
			msg:     msg,
			callAPI: true,
			want:    "Your message has been sent successfully!",
			toast:   testutil.Toast{Kind: testutil.KindSuccess, Message: "Your message has been sent successfully!"},
		},
		{
			name:    "server message",
			msg:     msg,
			apiErr:  &model.APIError{Status: http.StatusTooManyRequests, Message: "Slow down"},
			callAPI: true,
			toast:   testutil.Toast{Kind: testutil.KindError, Message: "Slow down"},
		},
		{
			name:    "network failure",
			msg:     msg,
			apiErr:  errors.New("connection refused"),
			callAPI: true,
			toast:   testutil.Toast{Kind: testutil.KindError, Message: "Failed to send message. Please try again."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mocks.ContactAPI{}
			notifier := &testutil.RecordingNotifier{}
			c := NewContact(api, notifier, testutil.MakeNoopLogger())
			if tt.callAPI {
				api.On("SubmitContact", mock.Anything, tt.msg).Return(tt.reply, tt.apiErr)
			}

			got, err := c.Send(context.Background(), tt.msg)
			if tt.want == "" {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.toast, notifier.Last())
			api.AssertExpectations(t)
		})
	}
}
