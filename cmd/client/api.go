package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// apiClient is a thin wrapper over the REST surface. Every call returns
// the decoded body or the server's error message as an error.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type authResponse struct {
	AccessToken string  `json:"access_token"`
	User        userDTO `json:"user"`
}

type userDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type recipientDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type conversationDTO struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	CreatorID  string         `json:"creator_id"`
	Recipients []recipientDTO `json:"recipients"`
	UpdatedAt  string         `json:"updated_at"`
}

type messageDTO struct {
	ID                string `json:"id"`
	ConversationID    string `json:"conversation_id"`
	AuthorID          string `json:"author_id"`
	AuthorUsername    string `json:"author_username"`
	AuthorDisplayName string `json:"author_display_name"`
	Content           string `json:"content"`
	CreatedAt         string `json:"created_at"`
}

func (c *apiClient) Register(username, displayName, password string) (authResponse, error) {
	var out authResponse
	err := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":     username,
		"display_name": displayName,
		"password":     password,
	}, &out)
	if err == nil {
		c.token = out.AccessToken
	}
	return out, err
}

func (c *apiClient) Login(username, password string) (authResponse, error) {
	var out authResponse
	err := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err == nil {
		c.token = out.AccessToken
	}
	return out, err
}

// List endpoints wrap their payload in a data envelope.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (c *apiClient) Conversations() ([]conversationDTO, error) {
	var out listResponse[conversationDTO]
	err := c.do(http.MethodGet, "/api/conversations", nil, &out)
	return out.Data, err
}

func (c *apiClient) CreateConversation(convType string, participantIDs []string) (conversationDTO, error) {
	var out conversationDTO
	err := c.do(http.MethodPost, "/api/conversations", map[string]interface{}{
		"type":            convType,
		"participant_ids": participantIDs,
	}, &out)
	return out, err
}

func (c *apiClient) Messages(conversationID string, limit int) ([]messageDTO, error) {
	var out listResponse[messageDTO]
	path := fmt.Sprintf("/api/conversations/%s/messages?limit=%d", conversationID, limit)
	err := c.do(http.MethodGet, path, nil, &out)
	return out.Data, err
}

func (c *apiClient) SendMessage(conversationID, content string) (messageDTO, error) {
	var out messageDTO
	path := fmt.Sprintf("/api/conversations/%s/messages", conversationID)
	err := c.do(http.MethodPost, path, map[string]string{"content": content}, &out)
	return out, err
}

func (c *apiClient) SearchUsers(query string) ([]recipientDTO, error) {
	var out listResponse[recipientDTO]
	err := c.do(http.MethodGet, "/api/users/search?q="+url.QueryEscape(query), nil, &out)
	return out.Data, err
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%d)", apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
