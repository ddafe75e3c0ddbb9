package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/oktabridge/oktabridge/internal/metrics"
	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// Request bodies stay small; anything larger is not a claims document.
const maxCallbackBody = 1 << 20

// Handlers groups the HTTP handlers and shared dependencies.
type Handlers struct {
	Reconciler      Reconciler
	DefaultProvider string
}

type callbackResponse struct {
	IdentityID int64   `json:"identity_id"`
	Groups     []int64 `json:"linked_groups"`
}

type callbackError struct {
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleOktaCallback accepts the verified claims document from the OAuth
// layer and reconciles it. Failure responses carry only the opaque support
// message and its correlation reference; the failure cause never leaves
// the server.
func (h *Handlers) HandleOktaCallback(c *echo.Context) error {
	claims, err := decodeClaims(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, callbackError{Message: "invalid claims document"})
	}
	if strings.TrimSpace(claims.Provider) == "" {
		claims.Provider = h.DefaultProvider
	}

	result, err := h.Reconciler.Run(c.Request().Context(), claims)
	if err != nil {
		slog.Error("login reconciliation error", "err", err)
		metrics.LoginsTotal.WithLabelValues(claims.Provider, "error").Inc()
		return c.JSON(http.StatusInternalServerError, callbackError{Message: "internal error"})
	}

	if !result.OK {
		if result.FailureCode == reconcile.FailNone {
			// Reconciliation succeeded but the login gate denied access.
			metrics.LoginsTotal.WithLabelValues(claims.Provider, "denied").Inc()
			return c.JSON(http.StatusForbidden, callbackError{Message: result.SupportMessage})
		}
		metrics.LoginsTotal.WithLabelValues(claims.Provider, "failure").Inc()
		metrics.LoginFailuresTotal.WithLabelValues(claims.Provider, strconv.Itoa(int(result.FailureCode))).Inc()
		return c.JSON(http.StatusUnauthorized, callbackError{
			Message:   result.SupportMessage,
			Reference: strconv.Itoa(result.MessageID),
		})
	}

	metrics.LoginsTotal.WithLabelValues(claims.Provider, "success").Inc()
	out := callbackResponse{IdentityID: int64(result.Identity.ID)}
	for _, id := range result.LinkedGroups {
		out.Groups = append(out.Groups, int64(id))
	}
	return c.JSON(http.StatusOK, out)
}

// decodeClaims unmarshals the claims document and records whether the
// groups claim was present at all, which the restriction check treats
// differently from an empty list.
func decodeClaims(body io.Reader) (reconcile.Claims, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxCallbackBody))
	if err != nil {
		return reconcile.Claims{}, err
	}

	var claims reconcile.Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return reconcile.Claims{}, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return reconcile.Claims{}, err
	}
	_, claims.GroupsPresent = keys["groups"]
	return claims, nil
}
