package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/adlens/internal/domain/imaging"
	"github.com/yanqian/adlens/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/adlens/pkg/errors"
)

type stubHistory struct {
	items       []HistoryItem
	countToday  int
	countErr    error
	insertErr   error
	insertCalls int
}

func (s *stubHistory) Insert(_ context.Context, item HistoryItem) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.items = append(s.items, item)
	return nil
}

func (s *stubHistory) ListByUser(_ context.Context, userID int64) ([]HistoryItem, error) {
	var out []HistoryItem
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubHistory) Get(_ context.Context, id uuid.UUID, userID int64) (HistoryItem, bool, error) {
	for _, item := range s.items {
		if item.ID == id && item.UserID == userID {
			return item, true, nil
		}
	}
	return HistoryItem{}, false, nil
}

func (s *stubHistory) Delete(_ context.Context, id uuid.UUID, userID int64) error {
	for i, item := range s.items {
		if item.ID == id && item.UserID == userID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubHistory) CountSince(_ context.Context, _ int64, _ time.Time) (int, error) {
	return s.countToday, s.countErr
}

type stubStorage struct {
	putCalls int
	putErr   error
	lastKey  string
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.putCalls++
	s.lastKey = key
	if s.putErr != nil {
		return StoredObject{}, s.putErr
	}
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType}, nil
}

func (s *stubStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *stubStorage) Delete(_ context.Context, _ string) error { return nil }

type stubChatClient struct {
	resp        chatgpt.ChatCompletionResponse
	err         error
	lastRequest chatgpt.ChatCompletionRequest
	calls       int
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.lastRequest = req
	return s.resp, s.err
}

func completionResponse(content string) chatgpt.ChatCompletionResponse {
	var resp chatgpt.ChatCompletionResponse
	resp.Choices = append(resp.Choices, struct {
		Message      chatgpt.ResponseMessage `json:"message"`
		FinishReason string                  `json:"finish_reason"`
	}{Message: chatgpt.ResponseMessage{Role: "assistant", Content: content}})
	return resp
}

func testConfig() Config {
	return Config{
		DailyLimit:  5,
		Model:       "gpt-4o",
		MaxTokens:   1000,
		Temperature: 0.2,
		Encoder:     imaging.DefaultConfig(),
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(history *stubHistory, storage *stubStorage, client *stubChatClient) *Service {
	return NewService(testConfig(), history, storage, client, nil, newTestLogger())
}

func analyzeRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Filename: "banner.jpg",
		MimeType: "image/jpeg",
		Image:    []byte("small-fake-image"),
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	history := &stubHistory{countToday: 2}
	storage := &stubStorage{}
	client := &stubChatClient{resp: completionResponse(
		"Positives:\n- Good colors\nImprovements:\n- Low contrast\nSuggestions:\n- Add CTA button")}
	svc := newTestService(history, storage, client)

	resp, err := svc.Analyze(context.Background(), 7, analyzeRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"Good colors"}, resp.Result.Positives)
	require.Equal(t, []string{"Low contrast"}, resp.Result.Improvements)
	require.Equal(t, []string{"Add CTA button"}, resp.Result.Suggestions)
	require.Len(t, resp.Recommendations, 3)
	require.Equal(t, "positive-0", resp.Recommendations[0].ID)
	require.Equal(t, QuotaState{Used: 3, Remaining: 2, Limit: 5}, resp.Quota)
	require.Empty(t, resp.Warning)
	require.Equal(t, "https://cdn.example.com/"+storage.lastKey, resp.ImageURL)
	require.Len(t, history.items, 1)
	require.Equal(t, int64(7), history.items[0].UserID)
}

func TestAnalyzePromptConstruction(t *testing.T) {
	client := &stubChatClient{resp: completionResponse("Positives: ok\nImprovements: x\nSuggestions: y")}
	svc := newTestService(&stubHistory{}, &stubStorage{}, client)

	req := analyzeRequest()
	req.Prompt = "spring sale campaign"
	req.Platforms = []string{"instagram", "tiktok"}
	_, err := svc.Analyze(context.Background(), 1, req)
	require.NoError(t, err)

	require.Len(t, client.lastRequest.Messages, 2)
	system, ok := client.lastRequest.Messages[0].Content.(string)
	require.True(t, ok)
	require.Contains(t, system, "Target platforms: instagram, tiktok")
	require.Contains(t, system, "Additional context from the user: spring sale campaign")

	parts, ok := client.lastRequest.Messages[1].Content.([]chatgpt.ContentPart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	require.Contains(t, parts[0].Text, "context I provided")
	require.NotNil(t, parts[1].ImageURL)
	require.Contains(t, parts[1].ImageURL.URL, "data:image/jpeg;base64,")
	require.Equal(t, 1000, client.lastRequest.MaxTokens)
}

func TestAnalyzeQuotaBoundary(t *testing.T) {
	tests := []struct {
		used      int
		wantBlock bool
	}{
		{used: 5, wantBlock: true},
		{used: 6, wantBlock: true},
		{used: 4, wantBlock: false},
	}
	for _, tt := range tests {
		history := &stubHistory{countToday: tt.used}
		storage := &stubStorage{}
		client := &stubChatClient{resp: completionResponse("Positives: a\nImprovements: b\nSuggestions: c")}
		svc := newTestService(history, storage, client)

		_, err := svc.Analyze(context.Background(), 1, analyzeRequest())
		if tt.wantBlock {
			require.True(t, apperrors.IsCode(err, "quota_exceeded"), "used=%d", tt.used)
			require.Contains(t, err.Error(), "5 analyses per day")
			require.Zero(t, storage.putCalls, "blocked request must not upload")
			require.Zero(t, client.calls, "blocked request must not call the model")
			require.Zero(t, history.insertCalls)
		} else {
			require.NoError(t, err, "used=%d", tt.used)
			require.Equal(t, 1, history.insertCalls)
		}
	}
}

func TestAnalyzeQuotaCountErrorBlocks(t *testing.T) {
	history := &stubHistory{countErr: errors.New("db down")}
	svc := newTestService(history, &stubStorage{}, &stubChatClient{})

	_, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.True(t, apperrors.IsCode(err, "storage_error"))
}

func TestAnalyzeNoHistoryRowOnModelFailure(t *testing.T) {
	history := &stubHistory{}
	client := &stubChatClient{err: errors.New("boom")}
	svc := newTestService(history, &stubStorage{}, client)

	_, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.True(t, apperrors.IsCode(err, "llm_error"))
	require.Zero(t, history.insertCalls)
}

func TestAnalyzeEmptyCompletionFailsClosed(t *testing.T) {
	history := &stubHistory{}
	client := &stubChatClient{resp: chatgpt.ChatCompletionResponse{}}
	svc := newTestService(history, &stubStorage{}, client)

	_, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.True(t, apperrors.IsCode(err, "no_analysis"))
	require.Zero(t, history.insertCalls)
}

func TestAnalyzeHistoryPersistFailureIsWarning(t *testing.T) {
	history := &stubHistory{insertErr: errors.New("insert failed")}
	client := &stubChatClient{resp: completionResponse("Positives: a\nImprovements: b\nSuggestions: c")}
	svc := newTestService(history, &stubStorage{}, client)

	resp, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Warning)
	require.Equal(t, []string{"a"}, resp.Result.Positives)
}

func TestAnalyzeUploadFailureAborts(t *testing.T) {
	storage := &stubStorage{putErr: errors.New("bucket gone")}
	client := &stubChatClient{}
	svc := newTestService(&stubHistory{}, storage, client)

	_, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.True(t, apperrors.IsCode(err, "upload_failed"))
	require.Zero(t, client.calls)
}

func TestAnalyzeRejectsMissingUserAndImage(t *testing.T) {
	svc := newTestService(&stubHistory{}, &stubStorage{}, &stubChatClient{})

	_, err := svc.Analyze(context.Background(), 0, analyzeRequest())
	require.True(t, apperrors.IsCode(err, "unauthorized"))

	_, err = svc.Analyze(context.Background(), 1, AnalyzeRequest{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestQuota(t *testing.T) {
	svc := newTestService(&stubHistory{countToday: 5}, &stubStorage{}, &stubChatClient{})
	state, err := svc.Quota(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, QuotaState{Used: 5, Remaining: 0, Limit: 5}, state)

	svc = newTestService(&stubHistory{countToday: 7}, &stubStorage{}, &stubChatClient{})
	state, err = svc.Quota(context.Background(), 1)
	require.NoError(t, err)
	require.Zero(t, state.Remaining, "remaining clamps at zero")
}

func TestHistoryLifecycle(t *testing.T) {
	history := &stubHistory{}
	client := &stubChatClient{resp: completionResponse("Positives: a\nImprovements: b\nSuggestions: c")}
	svc := newTestService(history, &stubStorage{}, client)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		resp, err := svc.Analyze(context.Background(), 9, analyzeRequest())
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	items, err := svc.ListHistory(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, items, 3)

	item, err := svc.GetHistoryItem(context.Background(), 9, ids[1])
	require.NoError(t, err)
	require.Equal(t, ids[1], item.ID)

	require.NoError(t, svc.DeleteHistoryItem(context.Background(), 9, ids[1]))
	_, err = svc.GetHistoryItem(context.Background(), 9, ids[1])
	require.True(t, apperrors.IsCode(err, "not_found"))

	err = svc.DeleteHistoryItem(context.Background(), 9, uuid.New())
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestGetHistoryItemScopedToUser(t *testing.T) {
	history := &stubHistory{}
	client := &stubChatClient{resp: completionResponse("Positives: a\nImprovements: b\nSuggestions: c")}
	svc := newTestService(history, &stubStorage{}, client)

	resp, err := svc.Analyze(context.Background(), 1, analyzeRequest())
	require.NoError(t, err)

	_, err = svc.GetHistoryItem(context.Background(), 2, resp.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestStoreImageKeyIsSanitized(t *testing.T) {
	storage := &stubStorage{}
	client := &stubChatClient{resp: completionResponse("Positives: a\nImprovements: b\nSuggestions: c")}
	svc := newTestService(&stubHistory{}, storage, client)

	req := analyzeRequest()
	req.Filename = "my ad / final (1).png"
	_, err := svc.Analyze(context.Background(), 3, req)
	require.NoError(t, err)
	require.Contains(t, storage.lastKey, "analyses/3/")
	require.NotContains(t, storage.lastKey, " ")
	require.NotContains(t, storage.lastKey, "(")
	require.Equal(t, fmt.Sprintf("analyses/%d/", 3), storage.lastKey[:11])
}
