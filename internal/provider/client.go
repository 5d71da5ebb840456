package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Endpoints do provedor (a grafia "matchs" é a do próprio provedor)
const (
	EndpointLastUpdated = "/last-updated"
	EndpointNextMatches = "/next-matchs"
	EndpointMatches     = "/matchs"
)

var (
	ErrTransport  = errors.New("provider transport error")
	ErrHTTPStatus = errors.New("provider http status")
	ErrDecode     = errors.New("provider decode error")
)

// Options configura o cliente; campos vazios recebem os defaults do provedor
type Options struct {
	BaseURL   string
	APIKey    string
	APIHost   string
	Bookmaker string
	SportID   int
	Timeout   time.Duration
}

// Client fala com a API de futebol virtual via POST form-encoded.
// Sem retries: uma falha significa "sem dados" para a liga neste ciclo.
type Client struct {
	BaseURL   string
	APIKey    string
	APIHost   string
	Bookmaker string
	SportID   int
	HTTP      *http.Client
	Log       *zap.Logger

	OnRequest func(endpoint string, code int, elapsed time.Duration) // métricas; code 0 = erro de transporte
}

func New(opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Bookmaker == "" {
		opts.Bookmaker = "bet365"
	}
	if opts.SportID == 0 {
		opts.SportID = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:   strings.TrimRight(opts.BaseURL, "/"),
		APIKey:    opts.APIKey,
		APIHost:   opts.APIHost,
		Bookmaker: opts.Bookmaker,
		SportID:   opts.SportID,
		HTTP:      &http.Client{Timeout: opts.Timeout},
		Log:       log,
	}
}

// NextMatches retorna as próximas partidas da liga, com odds
func (c *Client) NextMatches(ctx context.Context, league string) (*Response, error) {
	var out Response
	if err := c.post(ctx, EndpointNextMatches, league, &out); err != nil {
		return nil, err
	}
	c.warnIfDown(EndpointNextMatches, league, out)
	return &out, nil
}

// Matches retorna as partidas recentes da liga, com placares
func (c *Client) Matches(ctx context.Context, league string) (*Response, error) {
	var out Response
	if err := c.post(ctx, EndpointMatches, league, &out); err != nil {
		return nil, err
	}
	c.warnIfDown(EndpointMatches, league, out)
	return &out, nil
}

// LastUpdated retorna o corpo cru de /last-updated (formato não documentado)
func (c *Client) LastUpdated(ctx context.Context, league string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.post(ctx, EndpointLastUpdated, league, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) warnIfDown(endpoint, league string, r Response) {
	if !r.Status {
		c.Log.Warn("provider answered status=false",
			zap.String("endpoint", endpoint), zap.String("league", league), zap.Int("records", len(r.Matchs)))
	}
}

// post envia o formulário padrão e decodifica o JSON em dst.
// Todo erro é logado aqui com contexto e devolvido embrulhado em um sentinel.
func (c *Client) post(ctx context.Context, endpoint, league string, dst any) error {
	form := url.Values{}
	form.Set("league", league)
	form.Set("home", c.Bookmaker)
	form.Set("sport_id", strconv.Itoa(c.SportID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("x-rapidapi-key", c.APIKey)
	req.Header.Set("x-rapidapi-host", c.APIHost)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log := c.Log.With(zap.String("endpoint", endpoint), zap.String("league", league))

	start := time.Now()
	res, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		log.Error("provider request failed", zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, endpoint, league, err)
	}
	defer res.Body.Close()
	c.observe(endpoint, res.StatusCode, start)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		log.Error("provider returned non-2xx", zap.Int("status", res.StatusCode), zap.ByteString("body", snippet))
		return fmt.Errorf("%w: %s %s: %d", ErrHTTPStatus, endpoint, league, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		log.Error("provider returned invalid json", zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, endpoint, league, err)
	}

	log.Debug("provider request ok", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) observe(endpoint string, code int, start time.Time) {
	if c.OnRequest != nil {
		c.OnRequest(endpoint, code, time.Since(start))
	}
}
