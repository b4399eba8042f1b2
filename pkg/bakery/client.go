package bakery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is the gateway's view of the bakery backend, the single source of
// authority for credentials, the catalog and committed orders. Every method
// normalizes transport failures and non-2xx responses into *errors.AppError.
type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, req *models.RegisterRequest) error
	GetUser(ctx context.Context, run, token string) (*UserRecord, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, code string) (*models.Product, error)
	CreateOrder(ctx context.Context, token string, order *models.Order) (*OrderResult, error)
}

// LoginResult carries the backend's Spanish-named auth payload.
type LoginResult struct {
	Token     string `json:"token"`
	RUN       string `json:"run"`
	Name      string `json:"nombre"`
	Surname   string `json:"apellidos"`
	Email     string `json:"email"`
	Role      string `json:"rol"`
	Region    string `json:"region"`
	Commune   string `json:"comuna"`
	Address   string `json:"direccion"`
	BirthDate string `json:"fechaNacimiento"`
	PromoCode string `json:"codigoPromo"`
}

type UserRecord struct {
	RUN       string `json:"run"`
	Name      string `json:"nombre"`
	Surname   string `json:"apellidos"`
	Email     string `json:"email"`
	Role      string `json:"rol"`
	Region    string `json:"region"`
	Commune   string `json:"comuna"`
	Address   string `json:"direccion"`
	BirthDate string `json:"fechaNacimiento"`
	PromoCode string `json:"codigoPromo"`
}

type OrderResult struct {
	ID     int64  `json:"id"`
	Status string `json:"estado"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *httpClient) do(ctx context.Context, method, path, token string, body, dest any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.InternalError("Failed to encode request").WithError(err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.InternalError("Failed to build request").WithError(err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.UpstreamError("Backend is unreachable").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, path)
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperrors.UpstreamError("Backend returned an unreadable response").WithError(err)
	}

	return nil
}

// statusError preserves the 401/403/404 classes the session liveness probe
// keys its zombie-session eviction on; everything else is a generic upstream
// failure.
func statusError(code int, path string) error {
	switch code {
	case http.StatusUnauthorized:
		return apperrors.UnauthorizedError("Backend rejected the credentials")
	case http.StatusForbidden:
		return apperrors.ForbiddenError("Backend denied access")
	case http.StatusNotFound:
		return apperrors.NotFoundError("Backend resource not found")
	default:
		return apperrors.UpstreamError(fmt.Sprintf("Backend call to %s failed with status %d", path, code))
	}
}

func (c *httpClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult

	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *httpClient) Register(ctx context.Context, req *models.RegisterRequest) error {
	body := map[string]string{
		"run":             req.RUN,
		"nombre":          req.Name,
		"apellidos":       req.Surname,
		"email":           req.Email,
		"password":        req.Password,
		"region":          req.Region,
		"comuna":          req.Commune,
		"direccion":       req.Address,
		"fechaNacimiento": req.BirthDate,
		"codigoPromo":     req.PromoCode,
	}

	return c.do(ctx, http.MethodPost, "/auth/register", "", body, nil)
}

func (c *httpClient) GetUser(ctx context.Context, run, token string) (*UserRecord, error) {
	var record UserRecord

	if err := c.do(ctx, http.MethodGet, "/usuarios/"+run, token, nil, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (c *httpClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product

	if err := c.do(ctx, http.MethodGet, "/productos", "", nil, &products); err != nil {
		return nil, err
	}

	return products, nil
}

func (c *httpClient) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product

	if err := c.do(ctx, http.MethodGet, "/productos/"+code, "", nil, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

func (c *httpClient) CreateOrder(ctx context.Context, token string, order *models.Order) (*OrderResult, error) {
	var result OrderResult

	if err := c.do(ctx, http.MethodPost, "/pedidos", token, order, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
