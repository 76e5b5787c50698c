package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/ollama"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Knowledge.TopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))

	hits, err := s.retriever.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.respondUpstreamError(w, "search failed", err)
		return
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{Results: hits, Count: len(hits)})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Knowledge.TopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query))

	resp, err := s.retriever.Query(r.Context(), req)
	if err != nil {
		s.respondUpstreamError(w, "query failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.respondError(w, http.StatusBadRequest, "no documents provided")
		return
	}
	s.logger.Debug("ingest request", zap.Int("documents", len(req.Documents)))

	ingested, err := s.syncer.IngestDocuments(r.Context(), req.Documents, req.Metadatas, req.IDs)
	if err != nil {
		s.respondUpstreamError(w, "ingest failed", err)
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.respondUpstreamError(w, "ingest count failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.IngestResponse{Ingested: ingested, Total: total})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("sync request")
	synced, total, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.respondUpstreamError(w, "sync failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SyncResponse{Synced: synced, Total: total})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req models.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	resp, err := s.classifier.Classify(r.Context(), req.Message)
	if err != nil {
		s.respondUpstreamError(w, "classify failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := models.HealthResponse{
		Status:     "ok",
		Ollama:     true,
		EmbedModel: s.health.EmbedModel(),
		ChatModel:  s.health.ChatModel(),
	}
	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn("model host unreachable", zap.Error(err))
		resp.Status = "degraded"
		resp.Ollama = false
	}
	if count, err := s.store.Count(ctx); err == nil {
		resp.Documents = count
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("stats: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.StatsResponse{
		TotalDocuments: count,
		CollectionName: s.config.Storage.CollectionName,
		DatabasePath:   s.config.Storage.DatabasePath,
	})
}

// respondUpstreamError maps a model-host outage to 502 and anything else to 500.
func (s *Server) respondUpstreamError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	if errors.Is(err, ollama.ErrUnavailable) {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
