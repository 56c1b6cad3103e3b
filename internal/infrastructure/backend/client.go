// Package backend es el único punto de I/O de red de la aplicación: un cliente
// HTTP JSON contra el servicio remoto dueño de ventas, stock y usuarios.
// Toda respuesta del backend se trata como autoritativa; esta capa no cachea.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/pkg/logger"
)

// Config del cliente HTTP.
type Config struct {
	BaseURL string
	Timeout time.Duration // Espera acotada por petición; nunca un cuelgue silencioso
}

// on401 define cómo interpretar un 401 según la llamada.
type on401 int

const (
	rejectSession on401 = iota // Sesión caída: ErrUnauthorized + hook global
	rejectQuiet                // ErrUnauthorized sin hook (el store de sesión ya lo maneja)
	rejectLogin                // Credenciales de login rechazadas: ErrAuthenticationFailed
)

// Client cliente HTTP compartido por el gateway de ventas y la autenticación.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger

	credential func() string // Credencial vigente de la sesión; vacío = sin sesión
	onRejected func(string)  // Hook de 401 global; recibe la credencial rechazada
}

// NewClient construye el cliente. La sesión se ata después con BindSession
// (el store de sesión necesita a su vez este cliente para autenticarse).
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log:        log,
		credential: func() string { return "" },
	}
}

// BindSession ata la fuente de credencial y el hook global de credencial
// rechazada. El hook se dispara ante el 401 de CUALQUIER llamada de ventas,
// sin importar cuál lo produjo, y recibe la credencial con la que se hizo la
// petición para que el receptor pueda ignorar rechazos de una sesión anterior.
func (c *Client) BindSession(credential func() string, onRejected func(string)) {
	c.credential = credential
	c.onRejected = onRejected
}

// apiError cuerpo de error que devuelve el backend.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do ejecuta una petición autenticada con la credencial de la sesión vigente.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	return c.exec(ctx, method, path, query, c.credential(), in, out, rejectSession)
}

// exec ejecuta una petición JSON, decodifica la respuesta en out y mapea los
// estados HTTP a errores de dominio.
func (c *Client) exec(ctx context.Context, method, path string, query url.Values, credential string, in, out any, mode on401) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("backend: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.NewString())
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Abandono del caller (navegó a otra vista) o timeout del contexto.
			return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrBackendUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("backend: deserializar respuesta de %s %s: %w", method, path, err)
		}
		return nil
	}

	return c.mapError(method, path, resp.StatusCode, raw, credential, mode)
}

func (c *Client) mapError(method, path string, status int, raw []byte, credential string, mode on401) error {
	var detail apiError
	_ = json.Unmarshal(raw, &detail)
	msg := detail.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	switch status {
	case http.StatusUnauthorized:
		if mode == rejectLogin {
			return fmt.Errorf("%w: %s", domain.ErrAuthenticationFailed, msg)
		}
		if mode == rejectSession && c.onRejected != nil {
			c.onRejected(credential)
		}
		return fmt.Errorf("%w: %s %s", domain.ErrUnauthorized, method, path)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s %s", domain.ErrForbidden, method, path)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	default:
		c.log.Warn().Int("status", status).Str("path", path).Msg("respuesta inesperada del backend")
		return fmt.Errorf("%w: HTTP %d en %s %s", domain.ErrBackendUnavailable, status, method, path)
	}
}
