package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kyunghoon/twasm/pkg/transpiler"
)

// ResponseWrapper is the envelope the server wraps API payloads in.
type ResponseWrapper[T any] struct {
	StatusCode int `json:"status_code"`
	Count      int `json:"count"`
	Data       T   `json:"data"`
}

// ApiError is the decoded body of a non-2xx API response.
type ApiError struct {
	Status      int                     `json:"status"`
	Message     string                  `json:"error"`
	Diagnostics []transpiler.Diagnostic `json:"diagnostics,omitempty"`
}

func (e *ApiError) Error() string {
	if len(e.Diagnostics) > 0 {
		d := e.Diagnostics[0]
		return fmt.Sprintf("%s: %s:%d:%d: %s",
			e.Message, d.File, d.Line, d.Column, d.Message)
	}
	return e.Message
}

func parseApiError(resp *http.Response) error {
	defer resp.Body.Close()
	apiErr := &ApiError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

func validateStatusCode(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return parseApiError(resp)
}

func commonPost[Req, Resp any](
	client *twasmClient, path string, body Req,
) (*Resp, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(
		http.MethodPost,
		client.baseUrl.JoinPath(path).String(),
		bytes.NewReader(buf),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := validateStatusCode(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var item ResponseWrapper[Resp]
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return &item.Data, nil
}

func commonGetRaw(client *twasmClient, path string) (*http.Response, []byte, error) {
	u := client.baseUrl.JoinPath("/")
	rel, err := url.Parse(path)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequest(http.MethodGet, u.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if err := validateStatusCode(resp); err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, buf, nil
}
