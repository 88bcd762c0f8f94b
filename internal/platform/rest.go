package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RestClient implements Platform against the platform's HTTP API.
type RestClient struct {
	BaseURL string
	Token   string
	// CategoryID is the parent category new pods are created under.
	CategoryID string

	HTTP *http.Client
}

func NewRestClient(baseURL, token, categoryID string) *RestClient {
	return &RestClient{
		BaseURL:    baseURL,
		Token:      token,
		CategoryID: categoryID,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *RestClient) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &UnresolvedError{Kind: "resource", ID: path}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("platform: %s %s returned %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *RestClient) HasCapabilities(communityID string) bool {
	var caps struct {
		RoomCreate bool `json:"room_create"`
		MemberMove bool `json:"member_move"`
		GrantEdit  bool `json:"grant_edit"`
	}
	if err := c.do(http.MethodGet, "/communities/"+communityID+"/capabilities", nil, &caps); err != nil {
		return false
	}
	return caps.RoomCreate && caps.MemberMove && caps.GrantEdit
}

func (c *RestClient) CreateRoom(communityID, name string, grants []AccessGrant) (string, error) {
	req := struct {
		Name     string        `json:"name"`
		ParentID string        `json:"parent_id"`
		Grants   []AccessGrant `json:"grants"`
	}{Name: name, ParentID: c.CategoryID, Grants: grants}

	var resp struct {
		RoomID string `json:"room_id"`
	}
	if err := c.do(http.MethodPost, "/communities/"+communityID+"/rooms", req, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

func (c *RestClient) DeleteRoom(roomID string) error {
	return c.do(http.MethodDelete, "/rooms/"+roomID, nil, nil)
}

func (c *RestClient) RenameRoom(roomID, name string) error {
	body := map[string]string{"name": name}
	return c.do(http.MethodPatch, "/rooms/"+roomID, body, nil)
}

func (c *RestClient) MoveMember(userID, roomID string) error {
	body := map[string]string{"room_id": roomID}
	return c.do(http.MethodPatch, "/members/"+userID+"/voice", body, nil)
}

func (c *RestClient) DisconnectMember(userID, communityID string) error {
	return c.do(http.MethodDelete, "/communities/"+communityID+"/members/"+userID+"/voice", nil, nil)
}

func (c *RestClient) EditAccessGrant(roomID string, grant AccessGrant) error {
	return c.do(http.MethodPut, "/rooms/"+roomID+"/grants/"+grant.TargetID, grant, nil)
}

func (c *RestClient) FetchMembership(roomID string) ([]Member, error) {
	var members []Member
	if err := c.do(http.MethodGet, "/rooms/"+roomID+"/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *RestClient) ResolveUser(communityID, userID string) error {
	return c.do(http.MethodGet, "/communities/"+communityID+"/members/"+userID, nil, nil)
}

func (c *RestClient) ResolveCommunity(communityID string) error {
	return c.do(http.MethodGet, "/communities/"+communityID, nil, nil)
}

func (c *RestClient) SendMessage(roomID, content string) error {
	body := map[string]string{"content": content}
	return c.do(http.MethodPost, "/rooms/"+roomID+"/messages", body, nil)
}

func (c *RestClient) SendDM(userID, content string) error {
	body := map[string]string{"content": content}
	return c.do(http.MethodPost, "/users/"+userID+"/messages", body, nil)
}
