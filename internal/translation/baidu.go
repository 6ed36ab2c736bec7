package translation

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const baiduBaseURL = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// BaiduClient translates through the Baidu general translation API.
type BaiduClient struct {
	appID      string
	appToken   string
	baseURL    string
	from       string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
}

// BaiduOption configures a BaiduClient.
type BaiduOption func(*BaiduClient)

// WithBaiduBaseURL points the client at another endpoint.
func WithBaiduBaseURL(u string) BaiduOption {
	return func(c *BaiduClient) { c.baseURL = u }
}

// WithBaiduBackoff sets the base retry backoff.
func WithBaiduBackoff(d time.Duration) BaiduOption {
	return func(c *BaiduClient) { c.backoff = d }
}

// NewBaiduClient creates a client translating from Chinese.
func NewBaiduClient(appID, appToken string, opts ...BaiduOption) *BaiduClient {
	c := &BaiduClient{
		appID:      appID,
		appToken:   appToken,
		baseURL:    baiduBaseURL,
		from:       "zh",
		maxRetries: 3,
		backoff:    time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// baiduCode accepts error codes encoded as either JSON strings or numbers.
type baiduCode string

func (c *baiduCode) UnmarshalJSON(b []byte) error {
	*c = baiduCode(strings.Trim(string(b), `"`))
	return nil
}

type baiduResponse struct {
	From        string        `json:"from"`
	To          string        `json:"to"`
	TransResult []baiduResult `json:"trans_result"`
	ErrorCode   baiduCode     `json:"error_code"`
	ErrorMsg    string        `json:"error_msg"`
}

type baiduResult struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// baiduRetryable lists API error codes worth another attempt: request
// timeout, system error and access frequency limit.
var baiduRetryable = map[baiduCode]bool{"52001": true, "52002": true, "54003": true}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Translate sends all texts in one request, one text per line.
func (bc *BaiduClient) Translate(ctx context.Context, texts []string, lang string) (map[string]string, error) {
	if len(texts) == 0 {
		return map[string]string{}, nil
	}
	if !IsSupported(lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	if bc.appID == "" || bc.appToken == "" {
		return nil, errors.New("baidu credentials are not configured")
	}

	q := strings.Join(texts, "\n")

	var lastErr error
	for attempt := 0; attempt < bc.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*2) * bc.backoff
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := bc.doRequest(ctx, q, lang)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return nil, perm.err
		}
	}

	return nil, fmt.Errorf("translation failed after %d retries: %w", bc.maxRetries, lastErr)
}

func (bc *BaiduClient) doRequest(ctx context.Context, q, lang string) (map[string]string, error) {
	salt := strconv.FormatInt(time.Now().UnixNano(), 10)
	form := url.Values{
		"q":     {q},
		"from":  {bc.from},
		"to":    {lang},
		"appid": {bc.appID},
		"salt":  {salt},
		"sign":  {bc.sign(q, salt)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bc.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, permanentError{fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("retryable error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, permanentError{fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))}
	}

	var apiResp baiduResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, permanentError{fmt.Errorf("unmarshal response: %w", err)}
	}

	if apiResp.ErrorCode != "" && apiResp.ErrorCode != "52000" {
		err := fmt.Errorf("API error [%s]: %s", apiResp.ErrorCode, apiResp.ErrorMsg)
		if baiduRetryable[apiResp.ErrorCode] {
			return nil, err
		}
		return nil, permanentError{err}
	}

	out := make(map[string]string, len(apiResp.TransResult))
	for _, r := range apiResp.TransResult {
		out[r.Src] = r.Dst
	}

	log.Debug().Str("lang", lang).Int("results", len(out)).Msg("Translation complete")
	return out, nil
}

// sign is the MD5 request signature required by the API.
func (bc *BaiduClient) sign(q, salt string) string {
	sum := md5.Sum([]byte(bc.appID + q + salt + bc.appToken))
	return hex.EncodeToString(sum[:])
}
