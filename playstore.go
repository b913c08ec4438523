package revlens

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const (
	playStoreBaseURL = "https://play.google.com"
	playStoreAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	reviewsRPCID     = "oCPfdb"
	reviewPageSize   = 100
)

// gjson paths into the ds:4 search payload and the reviews RPC payload.
const (
	searchEntriesPath   = "0.1.0.0.0"
	searchAppIDPath     = "12.0"
	searchNamePath      = "2"
	searchDeveloperPath = "4.0.0.0"
	searchRatingPath    = "6.0.2.1.1"

	reviewListPath      = "0"
	reviewTokenPath     = "1.1"
	reviewIDPath        = "0"
	reviewAuthorPath    = "1.0"
	reviewRatingPath    = "2"
	reviewTextPath      = "4"
	reviewTimePath      = "5.0"
	reviewThumbsPath    = "6"
	reviewReplyTextPath = "7.1"
	reviewReplyTimePath = "7.2.0"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// parseRetryAfter parses the Retry-After header value and returns duration
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}

	// Try to parse as seconds (numeric value)
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try to parse as HTTP date format
	if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		return time.Until(retryTime)
	}

	return 0
}

// fetchWithRetry makes a Play Store request with retry logic for rate limit
// and server errors. POST bodies are form-encoded.
func fetchWithRetry(method, rawURL, body string) ([]byte, error) {
	maxRetries := 5
	baseDelay := 2 * time.Second
	maxDelay := 60 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, rawURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", playStoreAgent)
		if method == http.MethodPost {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call Play Store: %w", err)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		// Retry rate limits and server errors with backoff
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if attempt == maxRetries {
				return nil, fmt.Errorf("play Store request failed after %d retries (status %d)", maxRetries, resp.StatusCode)
			}

			retryAfter := resp.Header.Get("Retry-After")
			retryDelay := parseRetryAfter(retryAfter)
			if retryDelay <= 0 {
				retryDelay = baseDelay * time.Duration(1<<attempt)
			}
			if retryDelay > maxDelay {
				retryDelay = maxDelay
			}

			log.Printf("Play Store throttled (attempt %d/%d, status %d), retrying in %v...", attempt+1, maxRetries+1, resp.StatusCode, retryDelay)
			time.Sleep(retryDelay)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("play Store error (status %d): %s", resp.StatusCode, truncateString(string(data), 200))
		}

		return data, nil
	}

	return nil, fmt.Errorf("unexpected error in retry loop")
}

// searchApps runs one Play Store search and returns up to limit parsed apps.
func searchApps(keyword string, limit int) ([]PlayApp, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("c", "apps")
	query.Set("hl", Settings.AppStores.GooglePlay.Language)
	query.Set("gl", Settings.AppStores.GooglePlay.Country)

	page, err := fetchWithRetry(http.MethodGet, playStoreBaseURL+"/store/search?"+query.Encode(), "")
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", keyword, err)
	}

	apps, err := parseSearchResults(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results for %q: %w", keyword, err)
	}
	if limit > 0 && len(apps) > limit {
		apps = apps[:limit]
	}
	return apps, nil
}

// parseSearchResults extracts apps from the search page. Results live in an
// AF_initDataCallback script payload keyed ds:4.
func parseSearchResults(page []byte) ([]PlayApp, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if !strings.Contains(text, "AF_initDataCallback") || !strings.Contains(text, "'ds:4'") {
			return true
		}
		payload = extractCallbackData(text)
		return payload == ""
	})
	if payload == "" {
		return nil, fmt.Errorf("no search payload found in page")
	}

	var apps []PlayApp
	gjson.Get(payload, searchEntriesPath).ForEach(func(_, entry gjson.Result) bool {
		appID := entry.Get(searchAppIDPath).String()
		if appID == "" {
			return true
		}
		apps = append(apps, PlayApp{
			AppID:     appID,
			Name:      entry.Get(searchNamePath).String(),
			Developer: entry.Get(searchDeveloperPath).String(),
			Rating:    entry.Get(searchRatingPath).Float(),
			URL:       fmt.Sprintf("%s/store/apps/details?id=%s", playStoreBaseURL, appID),
		})
		return true
	})
	return apps, nil
}

// extractCallbackData returns the JSON array passed as the callback's data
// argument: AF_initDataCallback({key: 'ds:4', ..., data:[...], sideChannel: {}})
func extractCallbackData(script string) string {
	start := strings.Index(script, "data:")
	if start == -1 {
		return ""
	}
	start += len("data:")
	end := strings.LastIndex(script, ", sideChannel:")
	if end == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(script[start:end])
}

// reviewsRequestBody builds the form body for the reviews RPC. The RPC's own
// arguments travel as a JSON string inside the f.req envelope; sort mode 2
// is newest first.
func reviewsRequestBody(appID, token string, count int) string {
	pagination := fmt.Sprintf("[%d]", count)
	if token != "" {
		pagination = fmt.Sprintf("[%d,null,%q]", count, token)
	}
	args := fmt.Sprintf(`[null,null,[2,null,%s],[%q,7]]`, pagination, appID)

	envelope, _ := json.Marshal([][][]any{{{reviewsRPCID, args, nil, "generic"}}})
	form := url.Values{}
	form.Set("f.req", string(envelope))
	return form.Encode()
}

// fetchReviewsPage fetches one page of reviews for an app, returning the
// continuation token for the next page, empty when exhausted.
func fetchReviewsPage(appID, token string, count int) ([]Review, string, error) {
	query := url.Values{}
	query.Set("rpcids", reviewsRPCID)
	query.Set("hl", Settings.AppStores.GooglePlay.Language)
	query.Set("gl", Settings.AppStores.GooglePlay.Country)
	endpoint := playStoreBaseURL + "/_/PlayStoreUi/data/batchexecute?" + query.Encode()

	body, err := fetchWithRetry(http.MethodPost, endpoint, reviewsRequestBody(appID, token, count))
	if err != nil {
		return nil, "", err
	}

	payload, err := batchPayload(body, reviewsRPCID)
	if err != nil {
		return nil, "", err
	}
	return parseReviews(payload, appID), gjson.Get(payload, reviewTokenPath).String(), nil
}

// batchPayload digs the named RPC payload out of a batchexecute response.
// Responses open with the )]}' anti-JSON prefix followed by line-chunked
// JSON frames; the payload itself is a JSON string nested in the wrb.fr
// frame.
func batchPayload(body []byte, rpcID string) (string, error) {
	text := strings.TrimPrefix(string(body), ")]}'")
	var payload string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[[") {
			continue
		}
		gjson.Parse(line).ForEach(func(_, frame gjson.Result) bool {
			if frame.Get("0").String() == "wrb.fr" && frame.Get("1").String() == rpcID {
				payload = frame.Get("2").String()
				return false
			}
			return true
		})
		if payload != "" {
			break
		}
	}
	if payload == "" {
		return "", fmt.Errorf("no %s payload in batchexecute response", rpcID)
	}
	return payload, nil
}

// parseReviews maps the RPC payload entries onto Review records.
func parseReviews(payload, appID string) []Review {
	var reviews []Review
	gjson.Get(payload, reviewListPath).ForEach(func(_, entry gjson.Result) bool {
		review := Review{
			ID:           entry.Get(reviewIDPath).String(),
			AppID:        appID,
			RawText:      entry.Get(reviewTextPath).String(),
			Rating:       int(entry.Get(reviewRatingPath).Int()),
			Author:       entry.Get(reviewAuthorPath).String(),
			HelpfulCount: int(entry.Get(reviewThumbsPath).Int()),
			ReplyText:    entry.Get(reviewReplyTextPath).String(),
		}
		if seconds := entry.Get(reviewTimePath).Int(); seconds > 0 {
			review.Timestamp = time.Unix(seconds, 0).UTC()
		}
		if seconds := entry.Get(reviewReplyTimePath).Int(); seconds > 0 {
			review.ReplyDate = time.Unix(seconds, 0).UTC()
		}
		if review.ID != "" {
			reviews = append(reviews, review)
		}
		return true
	})
	return reviews
}

// truncateString truncates a string to maxLen characters with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
