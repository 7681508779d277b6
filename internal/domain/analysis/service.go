package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/adlens/internal/domain/imaging"
	"github.com/yanqian/adlens/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/adlens/pkg/errors"
	"github.com/yanqian/adlens/pkg/metrics"
	"github.com/yanqian/adlens/pkg/util"
)

// Config drives the analysis pipeline.
type Config struct {
	DailyLimit  int
	Model       string
	MaxTokens   int
	Temperature float32
	Encoder     imaging.Config
}

// Service orchestrates one analysis request: quota gate, image encode and
// upload, vision call, parse, persist.
type Service struct {
	cfg     Config
	history HistoryRepository
	storage ObjectStorage
	client  ChatClient
	cache   ResultCache
	clock   util.Clock
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, history HistoryRepository, storage ObjectStorage, client ChatClient, cache ResultCache, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		history: history,
		storage: storage,
		client:  client,
		cache:   cache,
		clock:   time.Now,
		logger:  logger.With("component", "analysis.service"),
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(clock util.Clock) *Service {
	s.clock = clock
	return s
}

// AnalyzeRequest captures one user submission.
type AnalyzeRequest struct {
	Filename  string
	MimeType  string
	Image     []byte
	Prompt    string
	Platforms []string
}

// AnalyzeResponse is returned to the HTTP handler.
type AnalyzeResponse struct {
	ID              uuid.UUID           `json:"id"`
	ImageURL        string              `json:"imageUrl"`
	Result          Result              `json:"result"`
	Recommendations []Recommendation    `json:"recommendations"`
	Quota           QuotaState          `json:"quota"`
	Usage           *metrics.TokenUsage `json:"usage,omitempty"`
	Warning         string              `json:"warning,omitempty"`
}

// Analyze runs the full pipeline. The stages are strictly sequential; a
// failure before persistence leaves no partial state behind. A history insert
// failure after a successful analysis is reported as a warning, not an error.
func (s *Service) Analyze(ctx context.Context, userID int64, req AnalyzeRequest) (AnalyzeResponse, error) {
	if userID == 0 {
		return AnalyzeResponse{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	if len(req.Image) == 0 {
		return AnalyzeResponse{}, apperrors.Wrap("invalid_input", "image cannot be empty", nil)
	}

	used, err := s.usedToday(ctx, userID)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	if used >= s.cfg.DailyLimit {
		return AnalyzeResponse{}, apperrors.Wrap("quota_exceeded",
			fmt.Sprintf("daily limit reached (%d analyses per day)", s.cfg.DailyLimit), nil)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(req.Image)
	}
	payload, err := imaging.Encode(req.Image, mimeType, s.cfg.Encoder)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	imageURL, err := s.storeImage(ctx, userID, req.Filename, req.Image, mimeType)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	content, usage, err := s.requestAnalysis(ctx, payload, req.Prompt, req.Platforms)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	result := ParseCompletion(content)
	if result.IsEmpty() {
		return AnalyzeResponse{}, apperrors.Wrap("no_analysis", "no analysis generated", nil)
	}

	resp := AnalyzeResponse{
		ID:              uuid.New(),
		ImageURL:        imageURL,
		Result:          result,
		Recommendations: MapRecommendations(result),
		Usage:           usage,
	}

	item := HistoryItem{
		ID:        resp.ID,
		UserID:    userID,
		ImageURL:  imageURL,
		Prompt:    strings.TrimSpace(req.Prompt),
		Result:    result,
		CreatedAt: s.clock(),
	}
	if err := s.history.Insert(ctx, item); err != nil {
		s.logger.Error("history persist failed", "user_id", userID, "error", err)
		resp.Warning = "analysis completed but history could not be saved"
		resp.Quota = quotaState(used, s.cfg.DailyLimit)
		return resp, nil
	}
	s.cacheSet(ctx, item)

	resp.Quota = quotaState(used+1, s.cfg.DailyLimit)
	s.logger.Info("analysis complete", "user_id", userID, "history_id", item.ID,
		"positives", len(result.Positives), "improvements", len(result.Improvements), "suggestions", len(result.Suggestions))
	return resp, nil
}

// storeImage uploads the original bytes and returns the public reference kept
// in history. The model itself receives the size-bounded encoded payload, so
// the stored object never has to be provider-visible.
func (s *Service) storeImage(ctx context.Context, userID int64, filename string, data []byte, mimeType string) (string, error) {
	key := fmt.Sprintf("analyses/%d/%s_%s", userID, uuid.NewString(), sanitizeFilename(filename))
	if _, err := s.storage.Put(ctx, key, data, mimeType); err != nil {
		return "", apperrors.Wrap("upload_failed", "failed to store image", err)
	}
	return s.storage.PublicURL(key), nil
}

func (s *Service) requestAnalysis(ctx context.Context, payload imaging.Payload, prompt string, platforms []string) (string, *metrics.TokenUsage, error) {
	hasPrompt := strings.TrimSpace(prompt) != ""
	req := chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			chatgpt.TextMessage("system", BuildSystemPrompt(platforms, prompt)),
			chatgpt.PartsMessage("user",
				chatgpt.TextPart(UserInstruction(hasPrompt)),
				chatgpt.ImagePart(payload.DataURL()),
			),
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", nil, apperrors.Wrap("llm_error", "analysis request failed", err)
	}
	content := strings.TrimSpace(resp.Content())
	if content == "" {
		return "", nil, apperrors.Wrap("no_analysis", "no analysis generated", nil)
	}
	return content, s.tokenUsage(resp, content), nil
}

// tokenUsage prefers the provider's accounting and falls back to a local
// estimate when the usage block is absent.
func (s *Service) tokenUsage(resp chatgpt.ChatCompletionResponse, content string) *metrics.TokenUsage {
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.IsZero() {
		usage.CompletionTokens = metrics.EstimateTokens(s.cfg.Model, content)
		usage.TotalTokens = usage.CompletionTokens
	}
	return &usage
}

// ListHistory returns the user's analyses, newest first.
func (s *Service) ListHistory(ctx context.Context, userID int64) ([]HistoryItem, error) {
	if userID == 0 {
		return nil, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	items, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to list history", err)
	}
	return items, nil
}

// GetHistoryItem fetches one analysis, trying the cache first.
func (s *Service) GetHistoryItem(ctx context.Context, userID int64, id uuid.UUID) (HistoryItem, error) {
	if s.cache != nil {
		if item, found, err := s.cache.Get(ctx, id); err == nil && found && item.UserID == userID {
			return item, nil
		}
	}
	item, found, err := s.history.Get(ctx, id, userID)
	if err != nil {
		return HistoryItem{}, apperrors.Wrap("storage_error", "failed to load history item", err)
	}
	if !found {
		return HistoryItem{}, apperrors.Wrap("not_found", "analysis not found", nil)
	}
	s.cacheSet(ctx, item)
	return item, nil
}

// DeleteHistoryItem removes one analysis owned by the user.
func (s *Service) DeleteHistoryItem(ctx context.Context, userID int64, id uuid.UUID) error {
	_, found, err := s.history.Get(ctx, id, userID)
	if err != nil {
		return apperrors.Wrap("storage_error", "failed to load history item", err)
	}
	if !found {
		return apperrors.Wrap("not_found", "analysis not found", nil)
	}
	if err := s.history.Delete(ctx, id, userID); err != nil {
		return apperrors.Wrap("storage_error", "failed to delete history item", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("cache invalidate failed", "history_id", id, "error", err)
		}
	}
	return nil
}

func (s *Service) cacheSet(ctx context.Context, item HistoryItem) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, item); err != nil {
		s.logger.Warn("cache set failed", "history_id", item.ID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "_" {
		return "image"
	}
	return name
}
