// Package apiclient — Go-клиент feedhunt API с прозрачным обновлением
// access-токена: на первый 401 делает один вызов /refresh и повторяет
// исходный запрос ровно один раз.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"golang.org/x/sync/singleflight"

	"feedhunt/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type contextKey string

// retriedKey помечает запрос, уже прошедший один цикл refresh+retry
const retriedKey contextKey = "retried"

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string

	// одновременные 401 делят один in-flight refresh
	refreshGroup singleflight.Group
}

func New(baseURL string) (*Client, error) {
	// jar хранит refresh_token cookie между вызовами
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}, nil
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Do выполняет запрос с Bearer-токеном. Заголовок Authorization
// ставится только если его ещё нет — повтор несёт свой собственный.
// На 401 непомеченного запроса: один refresh, замена заголовка,
// один повтор. Второй 401 уходит вызывающему как есть.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if token := c.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || req.Context().Value(retriedKey) != nil {
		return resp, nil
	}

	retry, ok := rewindRequest(req)
	if !ok {
		// тело не восстановить — повтор невозможен
		return resp, nil
	}

	newToken, refreshErr := c.refreshShared(req.Context())
	if refreshErr != nil {
		// логический logout; исходный 401 отдаём как есть
		c.setAccessToken("")
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry.Header.Set("Authorization", "Bearer "+newToken)
	return c.http.Do(retry)
}

// rewindRequest клонирует запрос для повтора с пометкой retried.
func rewindRequest(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(context.WithValue(req.Context(), retriedKey, true))

	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

// refreshShared гоняет refresh через singleflight: N одновременных
// 401-обработчиков ждут один общий вызов /refresh.
func (c *Client) refreshShared(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/refresh", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	c.setAccessToken(body.AccessToken)
	return body.AccessToken, nil
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	User        *user.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	payload := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	}

	var body struct {
		User *user.User `json:"user"`
	}
	if err := c.postJSON(ctx, "/api/register", payload, http.StatusCreated, &body); err != nil {
		return nil, err
	}
	return body.User, nil
}

// Login сохраняет access-токен в памяти; refresh-токен остаётся
// в cookie jar и в JSON не приходит.
func (c *Client) Login(ctx context.Context, email, password string) (*user.User, error) {
	payload := map[string]string{"email": email, "password": password}

	var body LoginResponse
	if err := c.postJSON(ctx, "/api/login", payload, http.StatusOK, &body); err != nil {
		return nil, err
	}

	c.setAccessToken(body.AccessToken)
	return body.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if c.AccessToken() == "" {
		return ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/logout", nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.setAccessToken("")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, wantStatus int, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
