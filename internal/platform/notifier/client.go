package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"

	cfgpkg "github.com/studyflow/billing/pkg/config"
	"github.com/studyflow/billing/pkg/types"
)

// Dispatcher accepts a notification request and owns templating,
// localization and delivery. This service only makes the call.
type Dispatcher interface {
	Send(ctx context.Context, req *types.NotificationRequest) error
}

type httpDispatcher struct {
	baseURL  string
	apiToken string
	hc       *http.Client
}

func NewDispatcher(cfg *cfgpkg.Config) Dispatcher {
	timeout := time.Duration(cfg.Notifier.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpDispatcher{
		baseURL:  cfg.Notifier.BaseURL,
		apiToken: cfg.Notifier.APIToken,
		hc:       &http.Client{Timeout: timeout},
	}
}

func (d *httpDispatcher) Send(ctx context.Context, req *types.NotificationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.apiToken)
	}

	resp, err := d.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call notifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notifier returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewDispatcher),
)
