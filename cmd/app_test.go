package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/llm-assist/config"
	"github.com/dhcgn/llm-assist/model"
)

const inbox = `From a@example.com Mon Jan  1 09:00:00 2024
From: Billing <billing@example.com>
Subject: Invoice 2024-01

Please pay.

From b@example.com Tue Jan  2 09:00:00 2024
From: Bob <bob@example.com>
Subject: Hello

Hi!
`

func newRoot(t *testing.T, stdin string, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	root := &cobra.Command{Use: "llm-assist", SilenceUsage: true, SilenceErrors: true}
	config.RegisterFlags(root)
	root.AddCommand(Commands()...)

	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetArgs(append(args, "--env-file="))
	return root, &out
}

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvEmail, config.EnvEmailPassword, config.EnvGroqKey, config.EnvLLMKey, config.EnvNotionKey} {
		t.Setenv(key, "")
	}
}

func TestDigestCommand_OfflineMailbox(t *testing.T) {
	clearCredentials(t)

	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, m := range req.Messages {
			prompts = append(prompts, m.Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Bob says hi."}},
		}})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "inbox.mbox")
	require.NoError(t, os.WriteFile(path, []byte(inbox), 0o600))

	root, out := newRoot(t, "summary\n1\ny\nWhat did Bob say?\nexit\n",
		"digest", "--mbox="+path, "--llm-api-key=test", "--llm-base-url="+srv.URL, "--log-level=error")
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "From: Bob <bob@example.com>\nSubject: Hello")
	assert.NotContains(t, out.String(), "Subject: Invoice 2024-01")
	assert.Contains(t, out.String(), "LLM Response:\nBob says hi.")
	assert.Contains(t, out.String(), "Goodbye! The assistant has exited.")
	require.Len(t, prompts, 1)
	assert.True(t, strings.HasSuffix(prompts[0], "Question:\nWhat did Bob say?"))
}

func TestCommands_MissingCredentialsAreFatal(t *testing.T) {
	clearCredentials(t)

	tests := []struct {
		name    string
		args    []string
		missing []string
	}{
		{name: "digest", args: []string{"digest"}, missing: []string{config.EnvGroqKey, config.EnvEmail, config.EnvEmailPassword}},
		{name: "chat", args: []string{"chat", "--llm-api-key=k"}, missing: []string{config.EnvEmail, config.EnvEmailPassword}},
		{name: "notes", args: []string{"notes", "--llm-api-key=k"}, missing: []string{config.EnvNotionKey}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, out := newRoot(t, "", tt.args...)
			err := root.ExecuteContext(context.Background())
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.KindConfiguration))
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
			assert.Empty(t, out.String(), "no conversation starts without credentials")
		})
	}
}

func TestSetupLogger(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	logger, cleanup, err := setupLogger(config.Config{LogLevel: "info", LogDir: dir}, &stderr)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("visible", "k", "v")
	require.NoError(t, cleanup())

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "msg=visible k=v")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=visible")
}

func TestSetupLogger_DefaultsToWarn(t *testing.T) {
	var stderr bytes.Buffer
	logger, _, err := setupLogger(config.Config{}, &stderr)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
