package client

import (
	"net/http"
)

// TranspileRequest is the body of POST /api/v1/transpile.
type TranspileRequest struct {
	Filename   string `json:"filename"`
	Source     string `json:"source"`
	Format     string `json:"format,omitempty"`
	GlobalName string `json:"global_name,omitempty"`
	NoInterop  bool   `json:"no_interop,omitempty"`
	Engine     string `json:"engine,omitempty"`
}

type TranspileResponse struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Key      uint64 `json:"key"`
}

// LoadedModule is the result of fetching a module through the
// server's /load endpoint.
type LoadedModule struct {
	Path string
	Code string
	ETag string
}

func (c *twasmClient) Transpile(req TranspileRequest) (*TranspileResponse, error) {
	return commonPost[TranspileRequest, TranspileResponse](
		c, "/api/v1/transpile", req)
}

func (c *twasmClient) Load(path string) (*LoadedModule, error) {
	resp, buf, err := commonGetRaw(c, "/load/"+path)
	if err != nil {
		return nil, err
	}
	return &LoadedModule{
		Path: path,
		Code: string(buf),
		ETag: resp.Header.Get("ETag"),
	}, nil
}

func (c *twasmClient) Prelude() (string, error) {
	_, buf, err := commonGetRaw(c, "/prelude.js")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (c *twasmClient) Health() error {
	resp, err := c.client.Get(c.baseUrl.JoinPath("/api/v1/health").String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseApiError(resp)
	}
	return nil
}
