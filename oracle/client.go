package oracle

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// eventTokens is the closed canonical-event set the chat prompt is
// constrained to (mirrored from eventtype's own closed set so the
// oracle package never has to import eventtype for its token list).
var eventTokens = []string{
	"GIRTH_WELD", "VALVE", "TEE", "TAP", "FLANGE", "LAUNCHER", "RECEIVER",
	"SUPPORT", "METAL_LOSS", "CLUSTER", "METAL_LOSS_MFG", "DENT", "BEND",
	"FIELD_BEND", "OTHER",
}

// Client is the canonicalization/date oracle sidecar, backed by an
// OpenAI-compatible chat completion endpoint.
type Client struct {
	chat    openai.Client
	model   string
	timeout time.Duration
	retries int
	limiter *rate.Limiter

	readyMu     sync.Mutex
	readyAt     time.Time
	readyResult bool
}

// New builds a Client from opts, falling back to DefaultOptions for any
// zero-valued field.
func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RequestsPerMin <= 0 {
		opts.RequestsPerMin = def.RequestsPerMin
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))

	return &Client{
		chat:    openai.NewClient(reqOpts...),
		model:   opts.Model,
		timeout: opts.Timeout,
		retries: opts.MaxRetries,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMin)/60.0), opts.RequestsPerMin),
	}
}

// ResolveEventType satisfies eventtype.Oracle: asks the model to pick one
// of the closed canonical tokens, or UNKNOWN.
func (c *Client) ResolveEventType(ctx context.Context, raw string) (string, bool) {
	prompt := "Classify this pipeline inspection feature description as exactly one of: " +
		strings.Join(eventTokens, ", ") + ", or UNKNOWN. Reply with only the token.\n\n" + raw
	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return "", false
	}
	token := strings.ToUpper(strings.TrimSpace(resp))
	for _, t := range eventTokens {
		if token == t {
			return token, true
		}
	}
	return "", false
}

// ResolveDate satisfies dateparse.Oracle: asks the model for an ISO-8601
// date, or UNKNOWN.
func (c *Client) ResolveDate(ctx context.Context, raw string) (string, bool) {
	prompt := "Extract the calendar date from this inspection-sheet cell as ISO-8601 (YYYY-MM-DD), " +
		"or reply UNKNOWN if none is present.\n\n" + raw
	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return "", false
	}
	trimmed := strings.TrimSpace(resp)
	if strings.EqualFold(trimmed, "UNKNOWN") || trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// Ready probes the endpoint and caches the result for readinessCacheTTL
// (a readiness probe is cached for 30 s).
func (c *Client) Ready(ctx context.Context) bool {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	if time.Since(c.readyAt) < readinessCacheTTL {
		return c.readyResult
	}
	_, err := c.complete(ctx, "ping")
	c.readyResult = err == nil
	c.readyAt = time.Now()
	return c.readyResult
}

var _ MLProvider = (*Client)(nil)

// errMLParseFailed reports a malformed "SCORE|CONFIDENCE" completion reply;
// Blend's caller treats this the same as any other oracle failure.
var errMLParseFailed = errMLParseFailedError{}

type errMLParseFailedError struct{}

func (errMLParseFailedError) Error() string { return "oracle: could not parse ml score reply" }

// ScoreFeaturePair satisfies MLProvider for the ensemble scorer's optional
// ML adjustment: it asks the model for an adjusted 0-100 score and a
// 0-1 confidence on top of the deterministic candidate description.
func (c *Client) ScoreFeaturePair(ctx context.Context, cand MLCandidate) (MLResult, error) {
	return c.askForScore(ctx, "Given this pipeline anomaly feature-pair match candidate, "+
		"suggest an adjusted confidence score from 0 to 100.", cand)
}

// AssessGrowthTrend satisfies MLProvider for the standards engine's
// optional growth-classification adjustment.
func (c *Client) AssessGrowthTrend(ctx context.Context, cand MLCandidate) (MLResult, error) {
	return c.askForScore(ctx, "Given this corrosion growth-rate observation across inspection runs, "+
		"suggest an adjusted confidence score from 0 to 100 for the growth classification.", cand)
}

// ScoreInteractionSubgraph satisfies MLProvider for the interaction graph's
// optional cluster-severity adjustment.
func (c *Client) ScoreInteractionSubgraph(ctx context.Context, cand MLCandidate) (MLResult, error) {
	return c.askForScore(ctx, "Given this cluster of interacting pipeline anomalies, "+
		"suggest an adjusted confidence score from 0 to 100 for the combined severity.", cand)
}

// askForScore is the shared MLProvider call shape: a deterministic-score
// preamble, a "SCORE|CONFIDENCE" reply format, and a deterministic
// fallback (det, 0, ok=false semantics via the returned error) on any
// parse or completion failure so Blend's caller can skip gracefully.
func (c *Client) askForScore(ctx context.Context, instruction string, cand MLCandidate) (MLResult, error) {
	prompt := instruction + " Reply with exactly \"SCORE|CONFIDENCE\" (e.g. \"72.5|0.6\"), nothing else.\n\n" +
		"Deterministic score: " + strconv.FormatFloat(cand.DetScore, 'f', 2, 64) + "\n" + cand.Description
	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return MLResult{}, err
	}
	score, conf, ok := parseScorePair(resp)
	if !ok {
		return MLResult{}, errMLParseFailed
	}
	return MLResult{
		AdjustedScore: score,
		Confidence:    conf,
		Explanation:   strings.TrimSpace(resp),
		ModelID:       c.model,
		ModelVersion:  cand.Kind,
	}, nil
}

func parseScorePair(resp string) (score, confidence float64, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(resp), "|", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	confidence, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return score, confidence, true
}

// complete runs one rate-limited chat completion with up to c.retries
// retries on exponential backoff.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt <= c.retries; attempt++ {
		completion, err := c.chat.Chat.Completions.New(ctx, params)
		if err == nil && len(completion.Choices) > 0 {
			return completion.Choices[0].Message.Content, nil
		}
		lastErr = err
		if attempt < c.retries {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}
