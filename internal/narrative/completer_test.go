package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CompleterTestSuite struct {
	suite.Suite
}

func TestCompleterSuite(t *testing.T) {
	suite.Run(t, new(CompleterTestSuite))
}

func (suite *CompleterTestSuite) TestComplete() {
	var received chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.Equal(http.MethodPost, r.Method)
		suite.Equal("Bearer secret", r.Header.Get("Authorization"))
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  refined text \n"}}]}`))
	}))
	defer server.Close()

	completer := NewChatCompleter(ChatConfig{URL: server.URL, APIKey: "secret", Model: "groq", Temperature: 0.1})

	out, err := completer.Complete(context.Background(), "summarise 600000.SH")
	suite.Require().NoError(err)

	suite.Equal("refined text", out)
	suite.Equal("groq", received.Model)
	suite.InDelta(0.1, received.Temperature, 1e-12)
	suite.Require().Len(received.Messages, 1)
	suite.Equal("user", received.Messages[0].Role)
	suite.Equal("summarise 600000.SH", received.Messages[0].Content)
}

func (suite *CompleterTestSuite) TestErrorStatus() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewChatCompleter(ChatConfig{URL: server.URL, Model: "groq"}).Complete(context.Background(), "x")
	suite.Error(err)
	suite.Equal(errors.ErrCodeCompletionFailed, errors.GetCode(err))
	suite.Contains(err.Error(), "429")
}

func (suite *CompleterTestSuite) TestNoChoices() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewChatCompleter(ChatConfig{URL: server.URL, Model: "groq"}).Complete(context.Background(), "x")
	suite.Equal(errors.ErrCodeCompletionFailed, errors.GetCode(err))
}

func (suite *CompleterTestSuite) TestUnreachable() {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	completer := NewChatCompleter(ChatConfig{URL: url, Model: "groq", Timeout: time.Second})

	_, err := completer.Complete(context.Background(), "x")
	suite.Equal(errors.ErrCodeCompletionFailed, errors.GetCode(err))
}
