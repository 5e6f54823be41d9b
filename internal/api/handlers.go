package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/export"
	"github.com/vovakirdan/gamegen/internal/imagegen"
	"github.com/vovakirdan/gamegen/internal/llm"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/storage"
)

// maxBodyBytes bounds JSON request bodies; exports carry data URLs.
const maxBodyBytes = 64 << 20

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Uptime     string `json:"uptime"`
	Games      int    `json:"games"`
	LiveImages bool   `json:"live_images"`
}

// GameSummary is one catalog entry with its starting settings.
type GameSummary struct {
	catalog.GameConfig
	InitialSettings map[string]float64 `json:"initialSettings"`
}

// GenerateImageRequest is the body of POST /api/generate-image.
type GenerateImageRequest struct {
	GameTemplate  string `json:"gameTemplate"`
	GameID        string `json:"gameId"`
	AssetType     string `json:"assetType"`
	Prompt        string `json:"prompt"`
	UserSessionID string `json:"userSessionId"`
}

// GenerateImageResponse is the body of a successful generate-image call.
type GenerateImageResponse struct {
	Success        bool                `json:"success"`
	ImageURL       string              `json:"imageUrl"`
	AnimationData  *protocol.AssetData `json:"animationData"`
	ServerFilePath string              `json:"serverFilePath"`
	URLs           []string            `json:"urls"`
	Message        string              `json:"message"`
}

// GenerateAssetRequest is the body of POST /api/generate-asset.
type GenerateAssetRequest struct {
	Prompt        string `json:"prompt"`
	AssetType     string `json:"assetType"`
	GameID        string `json:"gameId,omitempty"`
	UserSessionID string `json:"userSessionId,omitempty"`
}

// GenerateAssetResponse carries one Base64 image or, for gem sets, the
// data URLs of every gem.
type GenerateAssetResponse struct {
	Success bool     `json:"success"`
	Image   string   `json:"image,omitempty"`
	URLs    []string `json:"urls,omitempty"`
}

// GenerateLLMTextRequest is the body of POST /api/generate-llm-text.
type GenerateLLMTextRequest struct {
	Prompt string `json:"prompt"`
	GameID string `json:"gameId"`
}

// ScoresResponse is the body of GET /api/scores/{gameId}.
type ScoresResponse struct {
	GameID   string               `json:"gameId"`
	ScoreKey string               `json:"scoreKey"`
	Best     int                  `json:"best"`
	Top      []storage.ScoreEntry `json:"top"`
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Games:      len(s.opts.Catalog.Current().Games),
		LiveImages: s.opts.LiveImages,
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	cat := s.opts.Catalog.Current()
	out := make([]GameSummary, 0, len(cat.Games))
	for _, g := range cat.Games {
		out = append(out, GameSummary{GameConfig: g, InitialSettings: g.InitialSettings()})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

// game resolves the {gameId} URL parameter, writing a 404 when unknown.
func (s *Server) game(w http.ResponseWriter, r *http.Request) (catalog.GameConfig, bool) {
	id := chi.URLParam(r, "gameId")
	g, ok := s.opts.Catalog.Current().Game(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound,
			NewError(ErrTypeGameNotFound, fmt.Sprintf("Unknown game: %s", id)).
				WithContext("gameId", id))
	}
	return g, ok
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, GameSummary{GameConfig: g, InitialSettings: g.InitialSettings()})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, NewError(ErrTypeValidation, err.Error()))
		return
	}
	gameID := req.GameTemplate
	if gameID == "" {
		gameID = req.GameID
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, r, http.StatusBadRequest,
			NewError(ErrTypeValidation, "Prompt is required.").WithContext("field", "prompt"))
		return
	}
	s.logger.Debug("generate image", "game", gameID, "type", req.AssetType, "session", req.UserSessionID)

	var value protocol.AssetValue
	if s.opts.LiveImages && s.opts.Images != nil {
		img, err := s.opts.Images.Asset(r.Context(), req.AssetType, req.Prompt, s.opts.BaseSeed)
		if err != nil {
			s.upstreamError(w, r, "image generation failed", err)
			return
		}
		value = protocol.URLAsset(imagegen.DataURL(img))
	} else {
		if s.opts.Library == nil {
			s.writeError(w, r, http.StatusNotFound, NewError(ErrTypeAssetNotFound, "No asset library configured"))
			return
		}
		v, err := s.opts.Library.Lookup(gameID, req.AssetType, req.Prompt)
		if err != nil && !errors.Is(err, assets.ErrNotFound) {
			s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Asset lookup failed").WithCause(err))
			return
		}
		if err != nil {
			s.writeError(w, r, http.StatusNotFound,
				NewError(ErrTypeAssetNotFound, err.Error()).
					WithContext("gameId", gameID).
					WithContext("assetType", req.AssetType))
			return
		}
		value = v
	}

	s.writeJSON(w, http.StatusOK, describeAsset(value, req.Prompt))
}

// describeAsset shapes an asset as a generate-image response.
func describeAsset(v protocol.AssetValue, prompt string) GenerateImageResponse {
	resp := GenerateImageResponse{
		Success:  true,
		ImageURL: v.Preview(),
		Message:  fmt.Sprintf("Asset generated successfully for prompt: %q", prompt),
	}
	switch v.Kind() {
	case protocol.KindURL:
		u, _ := v.URL()
		resp.AnimationData = &protocol.AssetData{IsAnimated: false}
		resp.ServerFilePath = u
	case protocol.KindImageSet:
		urls, _ := v.ImageSet()
		resp.URLs = urls
		resp.AnimationData = &protocol.AssetData{IsAnimated: false, URLs: urls}
		b, _ := json.Marshal(urls)
		resp.ServerFilePath = string(b)
	case protocol.KindSprite:
		sheet, _ := v.Sprite()
		resp.AnimationData = &protocol.AssetData{
			ImageURL:    sheet.ImageURL,
			IsAnimated:  true,
			Prefix:      sheet.Prefix,
			Count:       sheet.Count,
			FrameWidth:  sheet.FrameWidth,
			FrameHeight: sheet.FrameHeight,
		}
		resp.ServerFilePath = sheet.Prefix
	}
	return resp
}

func (s *Server) handleGenerateAsset(w http.ResponseWriter, r *http.Request) {
	var req GenerateAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, NewError(ErrTypeValidation, err.Error()))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, r, http.StatusBadRequest,
			NewError(ErrTypeValidation, "Prompt is required.").WithContext("field", "prompt"))
		return
	}
	if s.opts.Images == nil {
		s.writeError(w, r, http.StatusServiceUnavailable,
			NewError(ErrTypeUpstream, "Image generation is not configured"))
		return
	}
	s.logger.Info("generate asset", "type", req.AssetType, "game", req.GameID, "session", req.UserSessionID)

	if req.AssetType == "gemSet" {
		urls, err := s.opts.Images.GemSet(r.Context(), req.Prompt, s.opts.BaseSeed)
		if err != nil {
			s.upstreamError(w, r, "gem set generation failed", err)
			return
		}
		s.writeJSON(w, http.StatusOK, GenerateAssetResponse{Success: true, URLs: urls})
		return
	}

	img, err := s.opts.Images.Asset(r.Context(), req.AssetType, req.Prompt, s.opts.BaseSeed)
	if err != nil {
		s.upstreamError(w, r, "image generation failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, GenerateAssetResponse{
		Success: true,
		Image:   base64.StdEncoding.EncodeToString(img),
	})
}

func (s *Server) handleGenerateLLMText(w http.ResponseWriter, r *http.Request) {
	var req GenerateLLMTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, NewError(ErrTypeValidation, err.Error()))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, r, http.StatusBadRequest,
			NewError(ErrTypeValidation, "Prompt is required.").WithContext("field", "prompt"))
		return
	}
	if s.opts.Parser == nil {
		s.writeError(w, r, http.StatusServiceUnavailable,
			NewError(ErrTypeUpstream, "Prompt parsing is not configured"))
		return
	}

	result, err := s.opts.Parser.Parse(r.Context(), req.Prompt, req.GameID)
	if err != nil {
		s.upstreamError(w, r, "prompt parsing failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

// upstreamError reports a failed model call. HTTP errors from the model
// keep their status in the context.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	eb := NewError(ErrTypeUpstream, msg).WithCause(err)

	var imgErr *imagegen.HTTPError
	var llmErr *llm.HTTPError
	switch {
	case errors.As(err, &imgErr):
		eb.WithContext("upstream_status", imgErr.StatusCode)
	case errors.As(err, &llmErr):
		eb.WithContext("upstream_status", llmErr.StatusCode)
	}
	s.writeError(w, r, http.StatusBadGateway, eb)
}

// zipResponse sets the download headers on the first write, so an export
// that fails before writing can still answer with a JSON error.
type zipResponse struct {
	w        http.ResponseWriter
	fileName string
	started  bool
}

func (z *zipResponse) Write(p []byte) (int, error) {
	if !z.started {
		z.started = true
		z.w.Header().Set("Content-Type", "application/zip")
		z.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", z.fileName))
		z.w.WriteHeader(http.StatusOK)
	}
	return z.w.Write(p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req export.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, NewError(ErrTypeValidation, err.Error()))
		return
	}
	req.GameID = chi.URLParam(r, "gameId")

	out := &zipResponse{w: w, fileName: req.FileName()}
	res, err := s.opts.Exporter.Export(r.Context(), req, out)
	if err != nil {
		if out.started {
			s.logger.Error("export failed mid-stream", "game", req.GameID, "error", err)
			return
		}
		s.exportError(w, r, req.GameID, err)
		return
	}
	s.logger.Info("export sent", "game", req.GameID, "file", res.FileName, "bytes", res.Bytes, "unmatched", len(res.Unmatched))
}

func (s *Server) exportError(w http.ResponseWriter, r *http.Request, gameID string, err error) {
	switch {
	case errors.Is(err, export.ErrInvalidRequest):
		s.writeError(w, r, http.StatusBadRequest,
			NewError(ErrTypeValidation, "Missing required export data").WithCause(err))
	case errors.Is(err, catalog.ErrUnknownGame):
		s.writeError(w, r, http.StatusNotFound,
			NewError(ErrTypeGameNotFound, fmt.Sprintf("Unknown game: %s", gameID)).WithContext("gameId", gameID))
	case errors.Is(err, export.ErrAssetNotFound):
		s.writeError(w, r, http.StatusNotFound,
			NewError(ErrTypeAssetNotFound, "Export asset not found").WithCause(err))
	default:
		s.writeError(w, r, http.StatusInternalServerError,
			NewError(ErrTypeExport, "Failed to export game").WithCause(err).WithContext("gameId", gameID))
	}
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	if s.opts.Scores == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"exports": []storage.ExportRecord{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.opts.Scores.RecentExports(r.URL.Query().Get("gameId"), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Failed to read export history").WithCause(err))
		return
	}
	if records == nil {
		records = []storage.ExportRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"exports": records})
}

func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	resp := ScoresResponse{GameID: g.ID, ScoreKey: g.ScoreKey, Top: []storage.ScoreEntry{}}
	if s.opts.Scores != nil {
		best, err := s.opts.Scores.HighScore(g.ID)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Failed to read scores").WithCause(err))
			return
		}
		top, err := s.opts.Scores.TopScores(g.ID, 10)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Failed to read scores").WithCause(err))
			return
		}
		resp.Best = best
		if top != nil {
			resp.Top = top
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePostScore(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	var body struct {
		Score *int `json:"score"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, NewError(ErrTypeValidation, err.Error()))
		return
	}
	if body.Score == nil || *body.Score < 0 {
		s.writeError(w, r, http.StatusBadRequest,
			NewError(ErrTypeValidation, "score must be a non-negative integer").WithContext("field", "score"))
		return
	}
	if s.opts.Scores == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, NewError(ErrTypeInternal, "Score storage is not configured"))
		return
	}

	id, err := s.opts.Scores.SaveScore(g.ID, g.ScoreKey, *body.Score)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Failed to save score").WithCause(err))
		return
	}
	best, err := s.opts.Scores.HighScore(g.ID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, NewError(ErrTypeInternal, "Failed to read scores").WithCause(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": id, "scoreKey": g.ScoreKey, "best": best})
}
