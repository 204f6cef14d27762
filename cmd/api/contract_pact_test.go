//go:build pact

// Pact tests need libpact_ffi on the linker path:
//
//	go test -tags pact ./cmd/api/ -run Pact
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pact-foundation/pact-go/v2/consumer"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/pact-foundation/pact-go/v2/models"
	"github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashPS24/CAQMS/internal/config"
	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/internal/testutil"
	pkgtesting "github.com/YashPS24/CAQMS/pkg/testing"
)

const (
	pactConsumer = "caqms-web"
	pactProvider = config.ServiceName

	stateOrderWithoutSpecs = "order GPAR12345 exists without washing specs"
	stateTemplateExists    = "a buyer spec template exists for GPAR12345"
	stateNoTemplate        = "no buyer spec template exists for NOPE-1"
)

// webClient is the subset of browser calls the contract covers.
type webClient struct {
	baseURL string
}

func (c webClient) call(method, path string, body any) (*http.Response, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.baseURL+path, &payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}

func (c webClient) expect(method, path string, body any, status int) error {
	resp, err := c.call(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		return fmt.Errorf("%s %s: got status %d, want %d", method, path, resp.StatusCode, status)
	}
	return nil
}

func writeWebClientPact(t *testing.T, pactDir string) {
	t.Helper()

	newPact := func() *consumer.V4HTTPMockProvider {
		p, err := consumer.NewV4Pact(consumer.MockHTTPProviderConfig{
			Consumer: pactConsumer,
			Provider: pactProvider,
			PactDir:  pactDir,
		})
		require.NoError(t, err)
		return p
	}
	jsonHeader := func(b *consumer.V4ResponseBuilder) *consumer.V4ResponseBuilder {
		return b.Header("Content-Type", matchers.Regex("application/json; charset=utf-8", `application/json.*`))
	}

	t.Run("order colors", func(t *testing.T) {
		err := newPact().
			AddInteraction().
			Given(stateOrderWithoutSpecs).
			UponReceiving("a request for the colors of an order").
			WithRequest(http.MethodGet, "/api/washing-specs/order-colors/"+testutil.SampleOrderNo).
			WillRespondWith(http.StatusOK, func(b *consumer.V4ResponseBuilder) {
				jsonHeader(b).JSONBody(matchers.Map{
					"orderNo": matchers.String(testutil.SampleOrderNo),
					"colors": matchers.EachLike(matchers.Map{
						"ColorCode": matchers.String("C01"),
						"Color":     matchers.String("Black"),
						"ChnColor":  matchers.String("黑色"),
					}, 1),
				})
			}).
			ExecuteTest(t, func(cfg consumer.MockServerConfig) error {
				client := webClient{baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)}
				return client.expect(http.MethodGet, "/api/washing-specs/order-colors/"+testutil.SampleOrderNo, nil, http.StatusOK)
			})
		require.NoError(t, err)
	})

	t.Run("save washing specs", func(t *testing.T) {
		body := saveBody("C01")
		err := newPact().
			AddInteraction().
			Given(stateOrderWithoutSpecs).
			UponReceiving("a request to save washing specs for one color").
			WithRequest(http.MethodPost, "/api/washing-specs/save", func(b *consumer.V4RequestBuilder) {
				b.Header("Content-Type", matchers.String("application/json")).JSONBody(body)
			}).
			WillRespondWith(http.StatusOK, func(b *consumer.V4ResponseBuilder) {
				jsonHeader(b).JSONBody(matchers.Map{
					"message": matchers.Like("Successfully updated washing specs for MO No 'GPAR12345' with 1 color(s)."),
					"details": matchers.Map{
						"updatedColors": matchers.EachLike(matchers.String("C01"), 1),
						"version":       matchers.Integer(1),
					},
				})
			}).
			ExecuteTest(t, func(cfg consumer.MockServerConfig) error {
				client := webClient{baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)}
				return client.expect(http.MethodPost, "/api/washing-specs/save", body, http.StatusOK)
			})
		require.NoError(t, err)
	})

	t.Run("template mo options", func(t *testing.T) {
		err := newPact().
			AddInteraction().
			Given(stateTemplateExists).
			UponReceiving("a request for the MO numbers that have templates").
			WithRequest(http.MethodGet, "/api/buyer-spec-templates/mo-options").
			WillRespondWith(http.StatusOK, func(b *consumer.V4ResponseBuilder) {
				jsonHeader(b).JSONBody(matchers.EachLike(matchers.Map{
					"moNo":  matchers.String(testutil.SampleOrderNo),
					"stage": matchers.String("M1"),
				}, 1))
			}).
			ExecuteTest(t, func(cfg consumer.MockServerConfig) error {
				client := webClient{baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)}
				return client.expect(http.MethodGet, "/api/buyer-spec-templates/mo-options", nil, http.StatusOK)
			})
		require.NoError(t, err)
	})

	t.Run("update missing template", func(t *testing.T) {
		update := map[string]any{"stage": "M2", "specData": testutil.SampleSpecData()}
		err := newPact().
			AddInteraction().
			Given(stateNoTemplate).
			UponReceiving("a request to update a template that does not exist").
			WithRequest(http.MethodPut, "/api/buyer-spec-templates/NOPE-1", func(b *consumer.V4RequestBuilder) {
				b.Header("Content-Type", matchers.String("application/json")).JSONBody(update)
			}).
			WillRespondWith(http.StatusNotFound, func(b *consumer.V4ResponseBuilder) {
				jsonHeader(b).JSONBody(matchers.Map{
					"code":    matchers.String("RESOURCE_NOT_FOUND"),
					"message": matchers.String("Template not found for the given MO No."),
				})
			}).
			ExecuteTest(t, func(cfg consumer.MockServerConfig) error {
				client := webClient{baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)}
				return client.expect(http.MethodPut, "/api/buyer-spec-templates/NOPE-1", update, http.StatusNotFound)
			})
		require.NoError(t, err)
	})
}

// TestPactWebClientContract records the browser's expectations of the API and
// replays them against the real router backed by in-memory repositories.
func TestPactWebClientContract(t *testing.T) {
	pkgtesting.SkipIfShort(t)

	pactDir := t.TempDir()
	writeWebClientPact(t, pactDir)

	s := newTestServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	stateHandlers := models.StateHandlers{
		stateOrderWithoutSpecs: func(setup bool, state models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				s.orders.AddOrder(testutil.SampleOrder())
			}
			return nil, nil
		},
		stateTemplateExists: func(setup bool, state models.ProviderState) (models.ProviderStateResponse, error) {
			if !setup {
				return nil, nil
			}
			_, err := s.templates.Upsert(context.Background(), &domain.BuyerSpecTemplate{
				MoNo:     testutil.SampleOrderNo,
				Buyer:    "GAP",
				Stage:    "M1",
				SpecData: testutil.SampleSpecData(),
			})
			return nil, err
		},
		stateNoTemplate: func(setup bool, state models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
	}

	err := provider.NewVerifier().VerifyProvider(t, provider.VerifyRequest{
		Provider:        pactProvider,
		ProviderBaseURL: server.URL,
		PactDirs:        []string{pactDir},
		StateHandlers:   stateHandlers,
	})
	assert.NoError(t, err)
}
