package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/homefix-vision/internal/application"
	"github.com/bryanwahyu/homefix-vision/internal/domain/audit"
	domain "github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/extract"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/prompt"
	"github.com/bryanwahyu/homefix-vision/internal/logger"
)

// Observer receives one call per finished pipeline run.
type Observer interface {
	Outcome(mode, outcome, strategy string)
}

// Service runs the analysis pipeline. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	// Gateway is nil when the provider credential is not configured.
	Gateway  domain.ModelGateway
	Provider string
	Model    string

	Audit    audit.Repository
	Archive  domain.RawOutputArchive
	Observer Observer
	Clock    application.Clock
	Logger   *slog.Logger
}

// run carries what the pipeline learned so far, for logging and auditing.
type run struct {
	req      domain.AnalysisRequest
	rawText  string
	strategy string
}

// Analyze validates the request, calls the model once and returns a validated result.
func (s *Service) Analyze(ctx context.Context, method string, body []byte) (*domain.Diagnosis, error) {
	if method != http.MethodPost {
		return nil, domain.MethodNotAllowed(method)
	}
	start := s.now()

	var r run
	d, err := s.analyze(ctx, body, &r)

	s.finish(ctx, &r, d, err, start)
	return d, err
}

// CheckConfigured returns a ConfigurationError when no model credential is set.
// Callers that read the body themselves run it first so nothing else is looked at.
func (s *Service) CheckConfigured() error {
	if s.Gateway == nil {
		return domain.ConfigurationError(fmt.Sprintf("%s API key is not configured", providerLabel(s.Provider)))
	}
	return nil
}

func (s *Service) analyze(ctx context.Context, body []byte, r *run) (*domain.Diagnosis, error) {
	if err := s.CheckConfigured(); err != nil {
		return nil, err
	}

	req, err := domain.ParseRequest(http.MethodPost, body)
	if err != nil {
		return nil, err
	}
	r.req = req

	p := prompt.Build(req)

	text, err := s.Gateway.Complete(ctx, p)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.ModelError("model call failed", err)
		}
		return nil, err
	}
	r.rawText = text

	ex, err := extract.Extract(text)
	if err != nil {
		return nil, err
	}
	r.strategy = ex.Strategy

	res, err := domain.ValidateResult(ex.Raw)
	if err != nil {
		return nil, err
	}

	return &domain.Diagnosis{Result: res, Raw: ex.Raw, Strategy: ex.Strategy, Mode: req.Mode}, nil
}

func (s *Service) finish(ctx context.Context, r *run, d *domain.Diagnosis, err error, start time.Time) {
	log := s.logger().With("request_id", logger.RequestIDFromContext(ctx))
	mode := string(r.req.Mode)
	if mode == "" {
		mode = "unknown"
	}
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "InternalError"
		}
	}
	duration := s.now().Sub(start)

	if err != nil {
		log.Warn("analysis failed", "mode", mode, "kind", outcome, "strategy", r.strategy,
			"duration", duration, logger.Err(err))
	} else {
		log.Info("analysis done", "mode", mode, "images", len(r.req.Images), "strategy", r.strategy,
			"duration", duration)
	}

	if s.Observer != nil {
		s.Observer.Outcome(mode, outcome, r.strategy)
	}

	var archived string
	kind := domain.KindOf(err)
	if s.Archive != nil && r.rawText != "" && (kind == domain.KindExtraction || kind == domain.KindValidation) {
		key := archiveKey(s.now(), logger.RequestIDFromContext(ctx))
		url, aerr := s.Archive.Put(ctx, key, []byte(r.rawText), "text/plain; charset=utf-8")
		if aerr != nil {
			log.Error("archiving raw model output", "key", key, logger.Err(aerr))
		} else {
			archived = url
			log.Info("raw model output archived", "url", url)
		}
	}

	if s.Audit == nil {
		return
	}
	rec := &audit.Record{
		ID:         audit.RecordID(uuid.New().String()),
		RequestID:  logger.RequestIDFromContext(ctx),
		Mode:       mode,
		ImageCount: len(r.req.Images),
		Outcome:    outcome,
		Strategy:   r.strategy,
		Provider:   s.Provider,
		Model:      s.Model,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  s.now(),
	}
	if err != nil {
		rec.Detail = err.Error()
		if archived != "" {
			rec.Detail += " (raw output: " + archived + ")"
		}
	}
	if d != nil {
		if b, merr := json.Marshal(d.Result); merr == nil {
			rec.Result = string(b)
		}
	}
	// the caller's context may already be cancelled once the response is written
	if aerr := s.Audit.Save(context.WithoutCancel(ctx), rec); aerr != nil {
		log.Error("saving audit record", logger.Err(aerr))
	}
}

func archiveKey(now time.Time, requestID string) string {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return fmt.Sprintf("raw-output/%s/%s.txt", now.UTC().Format("2006/01/02"), requestID)
}

func providerLabel(p string) string {
	switch p {
	case "gemini":
		return "Gemini"
	case "", "openai":
		return "OpenAI"
	}
	return p
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
