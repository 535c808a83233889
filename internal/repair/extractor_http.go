package repair

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPExtractor adapts a structured-extraction service reachable over
// HTTP into a DiagnosticExtractor: POST {stdout, stderr, direct_names},
// expect back {involved_direct, culprit_name, culprit_specs}. The exact
// mechanism behind the endpoint (a hosted model, a rules engine) is the
// service's business; the core only requires the response shape.
type HTTPExtractor struct {
	URL    string
	Client *http.Client
}

// NewHTTPExtractor builds an HTTPExtractor with a bounded per-call
// timeout: every blocking external call carries its own timeout rather
// than relying on a caller-supplied context deadline.
func NewHTTPExtractor(url string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{URL: url, Client: &http.Client{Timeout: timeout}}
}

type extractorRequest struct {
	Stdout      string   `json:"stdout"`
	Stderr      string   `json:"stderr"`
	DirectNames []string `json:"direct_names"`
}

type extractorResponse struct {
	InvolvedDirect []string `json:"involved_direct"`
	CulpritName    string   `json:"culprit_name"`
	CulpritSpecs   string   `json:"culprit_specs"`
}

func (e *HTTPExtractor) Extract(stdout, stderr string, directNames []string) (ExtractResult, error) {
	body, err := json.Marshal(extractorRequest{Stdout: stdout, Stderr: stderr, DirectNames: directNames})
	if err != nil {
		return ExtractResult{}, errors.Wrap(err, "encoding extractor request")
	}

	resp, err := e.Client.Post(e.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return ExtractResult{}, errors.Wrap(err, "calling diagnostic extractor")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ExtractResult{}, errors.Errorf("diagnostic extractor returned %s", resp.Status)
	}

	var out extractorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ExtractResult{}, errors.Wrap(err, "decoding extractor response")
	}

	return ExtractResult{
		InvolvedDirect: out.InvolvedDirect,
		CulpritName:    out.CulpritName,
		CulpritSpecs:   out.CulpritSpecs,
	}, nil
}
