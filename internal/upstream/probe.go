package upstream

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ProbeTarget names one upstream connectivity check.
type ProbeTarget struct {
	Name     string
	service  string
	Endpoint string
}

// ProbeResult is the outcome of one check.
type ProbeResult struct {
	Name   string `json:"name"`
	Status int    `json:"status_code"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	// Skipped is set when the target's service has no URL configured.
	Skipped bool `json:"skipped,omitempty"`
}

// ProbeTargets lists every connectivity check the upstream services expose.
var ProbeTargets = []ProbeTarget{
	{Name: "main-api", service: "main", Endpoint: "/Batman/test-main-api-connection"},
	{Name: "main-api -> btc-api", service: "main", Endpoint: "/Batman/test-btc-api-connection"},
	{Name: "main-api -> bitcoin core", service: "main", Endpoint: "/Batman/test-bitcoin-api-bitcoincore-connection"},
	{Name: "mini-api", service: "mini", Endpoint: "/Batman/test-connection-api-btc"},
	{Name: "mini-api -> core", service: "mini", Endpoint: "/Batman/test-core-connection"},
	{Name: "registration-api -> main-api", service: "register", Endpoint: "/Batman/test-connection-main-api"},
}

// Probe runs every check sequentially with the given diagnostics key.
// Targets on a service without a configured URL are reported as skipped.
func (c *Client) Probe(ctx context.Context, apiKey string) []ProbeResult {
	results := make([]ProbeResult, 0, len(ProbeTargets))
	for _, target := range ProbeTargets {
		rc := c.serviceClient(target.service)
		if rc == nil {
			results = append(results, ProbeResult{Name: target.Name, Error: "not configured", Skipped: true})
			continue
		}
		_, status, err := c.call(ctx, rc, http.MethodGet, target.Endpoint, apiKey, nil)
		res := ProbeResult{Name: target.Name, Status: status, OK: err == nil && status == http.StatusOK}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (c *Client) serviceClient(service string) *resty.Client {
	switch service {
	case "main":
		return c.main
	case "mini":
		return c.mini
	case "register":
		return c.register
	}
	return nil
}
