// Package web implements the web-family tools: a bounded HTTP GET fetcher.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
	"github.com/nexus-orchestrator/orchestrator/internal/tools"
	"github.com/nexus-orchestrator/orchestrator/internal/tools/policy"
	"github.com/nexus-orchestrator/orchestrator/pkg/models"
)

// MaxFetchBytes bounds a single fetch_url response body.
const MaxFetchBytes = 256 * 1024

var client = &http.Client{Timeout: 15 * time.Second}

// Register adds the web family's tools to reg.
func Register(reg *tools.Registry) error {
	return reg.Register(models.ToolDescriptor{
		Name:        "fetch_url",
		Family:      policy.FamilyWeb,
		Description: "Fetch the body of an http(s) URL.",
		Parameters: map[string]models.Param{
			"url": {Type: "string", Required: true},
		},
		SideEffect: models.SideEffectNone,
	}, fetchURL)
}

func fetchURL(ctx context.Context, args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", apperr.New(apperr.KindValidation, "url must be http(s)")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransport, "fetch failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
