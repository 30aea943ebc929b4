package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/tarvale/coinledger/internal/service/depositservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/internal/webhook"
	"github.com/tarvale/coinledger/pkg/utils"
)

const maxBodySize = 1 << 20

type Ingestor interface {
	IngestPayment(ctx context.Context, body []byte) error
	IngestPayout(ctx context.Context, body []byte) error
}

type WebhookHandler struct {
	ingestor Ingestor
}

func New(ingestor Ingestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Payment acknowledges the provider's payment notification. Replays answer
// 200 so the provider stops retrying.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.ingestor.IngestPayment)
}

func (h *WebhookHandler) Payout(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.ingestor.IngestPayout)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, ingest func(ctx context.Context, body []byte) error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := ingest(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, webhook.ErrInvalidSignature),
			errors.Is(err, webhook.ErrMalformedPayload):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, depositservice.ErrNotFound),
			errors.Is(err, withdrawalservice.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "unknown order")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, "ok")
}
