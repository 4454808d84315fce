package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/shared"
)

// ParaphraseService calls the hosted inference model. The model is consumed
// as an opaque text+mode -> text function; the call is slow relative to
// everything else, so concurrent inference is bounded by a semaphore instead
// of letting it stall the request pool.
type ParaphraseService struct {
	appContext.DefaultService

	redisSvc *RedisService

	httpClient *http.Client
	apiURL     string
	apiKey     string

	sem chan struct{}

	cacheExpiry time.Duration
}

const PARAPHRASE_SVC = "paraphrase_svc"

var modePrompts = map[string]string{
	shared.ModeStandard: "paraphrase",
	shared.ModeFluency:  "paraphrase fluently",
	shared.ModeFormal:   "paraphrase formally",
	shared.ModeAcademic: "paraphrase in academic style",
	shared.ModeCreative: "paraphrase creatively",
	shared.ModeShorten:  "paraphrase and shorten",
	shared.ModeExpand:   "paraphrase and expand",
}

func (svc ParaphraseService) Id() string {
	return PARAPHRASE_SVC
}

func (svc *ParaphraseService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 120 * time.Second,
	}

	svc.apiURL = os.Getenv("INFERENCE_API_URL")
	if svc.apiURL == "" {
		svc.apiURL = "https://api-inference.huggingface.co/models/google/flan-t5-base"
	}
	svc.apiKey = os.Getenv("INFERENCE_API_KEY")

	maxConcurrent := 4
	svc.sem = make(chan struct{}, maxConcurrent)

	svc.cacheExpiry = time.Hour
	return svc.DefaultService.Configure(ctx)
}

func (svc *ParaphraseService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Paraphrase rewrites text in the requested mode. Identical inputs are
// served from cache; cache failures only cost the optimization.
func (svc *ParaphraseService) Paraphrase(c *fiber.Ctx, text, mode string) (string, bool, error) {
	if mode == "" {
		mode = shared.ModeStandard
	}

	cacheKey := cacheKeyFor(text, mode)
	if cached, err := svc.redisSvc.Get(c.Context(), cacheKey); err == nil && cached != "" {
		return cached, true, nil
	}

	select {
	case svc.sem <- struct{}{}:
	case <-c.Context().Done():
		return "", false, c.Context().Err()
	}
	defer func() { <-svc.sem }()

	start := time.Now()
	result, err := svc.callInference(text, mode)
	if err != nil {
		return "", false, err
	}

	paraphraseDurationSeconds.Observe(time.Since(start).Seconds())
	paraphraseRequestsTotal.WithLabelValues(mode).Inc()
	paraphraseCharactersTotal.Add(float64(len(text)))

	if err := svc.redisSvc.Set(c.Context(), cacheKey, result, svc.cacheExpiry); err != nil {
		log.WithError(err).Debug("Failed to cache paraphrase result")
	}

	return result, false, nil
}

func (svc *ParaphraseService) callInference(text, mode string) (string, error) {
	prompt, ok := modePrompts[mode]
	if !ok {
		prompt = modePrompts[shared.ModeStandard]
	}

	payload, err := json.Marshal(map[string]interface{}{
		"inputs": prompt + ": " + text,
		"parameters": map[string]interface{}{
			"max_length": 1024,
			"num_beams":  5,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, svc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if svc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+svc.apiKey)
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Inference request failed")
		return "", shared.ErrUpstreamUnavailable("Paraphrasing service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Inference API returned non-200 status")
		return "", shared.ErrUpstreamUnavailable("Paraphrasing service")
	}

	var results []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", shared.ErrUpstreamUnavailable("Paraphrasing service")
	}
	if len(results) == 0 || results[0].GeneratedText == "" {
		return "", shared.ErrUpstreamUnavailable("Paraphrasing service")
	}

	return results[0].GeneratedText, nil
}

func cacheKeyFor(text, mode string) string {
	sum := sha256.Sum256([]byte(mode + "\x00" + text))
	return "paraphrase:" + hex.EncodeToString(sum[:])
}
