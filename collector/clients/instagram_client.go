package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Luismorlan/instag/model"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

const (
	SessionHeader = "X-Session-Id"
)

// Generated with tool: https://mholt.github.io/json-to-go/
type GatewayDisplayResource struct {
	Src    string `json:"src"`
	Width  int    `json:"config_width"`
	Height int    `json:"config_height"`
}

type GatewaySidecarItem struct {
	Id               string                   `json:"id"`
	VideoUrl         string                   `json:"video_url"`
	DisplayResources []GatewayDisplayResource `json:"display_resources"`
}

type GatewayMedia struct {
	Id             string               `json:"id"`
	Shortcode      string               `json:"shortcode"`
	OwnerId        string               `json:"owner_id"`
	Caption        *string              `json:"caption"`
	TakenAt        json.RawMessage      `json:"taken_at"`
	Likes          *int64               `json:"likes_count"`
	VideoViewCount *int64               `json:"video_view_count"`
	Typename       string               `json:"__typename"`
	VideoUrl       string               `json:"video_url"`
	DisplayUrl     string               `json:"display_url"`
	SidecarItems   []GatewaySidecarItem `json:"sidecar_items"`
	Hashtags       []string             `json:"hashtags"`
}

type GatewayFeedResponse struct {
	User struct {
		Id       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Medias   []GatewayMedia `json:"medias"`
	PageInfo struct {
		EndCursor   string `json:"end_cursor"`
		HasNextPage bool   `json:"has_next_page"`
	} `json:"page_info"`
}

type GatewayMediaDetailResponse struct {
	Shortcode    string               `json:"shortcode"`
	SidecarItems []GatewaySidecarItem `json:"sidecar_items"`
}

type GatewayLoginResponse struct {
	SessionId string `json:"session_id"`
}

// InstagramGatewayClient implements FeedSource against a JSON gateway
// exposing /login, /profiles/{handle}, /tags/{tag} and /medias/{shortcode}.
type InstagramGatewayClient struct {
	baseUrl string
	client  *HttpClient
}

func NewInstagramGatewayClient(baseUrl string, client *HttpClient) *InstagramGatewayClient {
	if client == nil {
		client = NewDefaultHttpClient()
	}
	return &InstagramGatewayClient{baseUrl: strings.TrimSuffix(baseUrl, "/"), client: client}
}

func (c *InstagramGatewayClient) Login(ctx context.Context, credentials Credentials) error {
	body, err := json.Marshal(map[string]string{
		"username": credentials.Username,
		"password": credentials.Password,
	})
	if err != nil {
		return err
	}
	res, err := c.client.Post(ctx, c.baseUrl+"/login", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "login request failed")
	}
	var loginRes GatewayLoginResponse
	if _, err := decodeJSON(res, &loginRes); err != nil {
		return err
	}
	if loginRes.SessionId == "" {
		return errors.New("login returned empty session")
	}
	c.client.SetHeader(SessionHeader, loginRes.SessionId)
	return nil
}

func (c *InstagramGatewayClient) GetProfile(ctx context.Context, handle string) (*ProfilePage, error) {
	return c.getProfilePage(ctx, handle, "")
}

func (c *InstagramGatewayClient) GetMoreMedias(ctx context.Context, previous *ProfilePage) (*ProfilePage, error) {
	if previous == nil || !previous.HasMore {
		return nil, errors.New("profile page has no more medias")
	}
	return c.getProfilePage(ctx, previous.Handle, previous.EndCursor)
}

func (c *InstagramGatewayClient) GetHashtag(ctx context.Context, tag string) (*HashtagPage, error) {
	return c.getHashtagPage(ctx, tag, "")
}

func (c *InstagramGatewayClient) GetMoreHashtagMedias(ctx context.Context, tag string, cursor string) (*HashtagPage, error) {
	return c.getHashtagPage(ctx, tag, cursor)
}

func (c *InstagramGatewayClient) GetMediaDetailed(ctx context.Context, shortcode string) (*model.MediaDetailed, error) {
	res, err := c.client.Get(ctx, c.baseUrl+"/medias/"+url.PathEscape(shortcode))
	if err != nil {
		return nil, errors.Wrap(err, "fail to get media detail "+shortcode)
	}
	var detail GatewayMediaDetailResponse
	if _, err := decodeJSON(res, &detail); err != nil {
		return nil, err
	}
	return &model.MediaDetailed{
		Shortcode:    detail.Shortcode,
		SidecarItems: convertSidecarItems(detail.SidecarItems),
	}, nil
}

func (c *InstagramGatewayClient) getProfilePage(ctx context.Context, handle, cursor string) (*ProfilePage, error) {
	feed, backoff, err := c.getFeed(ctx, c.baseUrl+"/profiles/"+url.PathEscape(handle), cursor)
	if err != nil {
		return nil, errors.Wrap(err, "fail to get profile "+handle)
	}
	return &ProfilePage{
		Handle:    handle,
		UserId:    feed.User.Id,
		Medias:    convertMedias(feed.Medias),
		EndCursor: feed.PageInfo.EndCursor,
		HasMore:   feed.PageInfo.HasNextPage && feed.PageInfo.EndCursor != "",
		Backoff:   backoff,
	}, nil
}

func (c *InstagramGatewayClient) getHashtagPage(ctx context.Context, tag, cursor string) (*HashtagPage, error) {
	feed, backoff, err := c.getFeed(ctx, c.baseUrl+"/tags/"+url.PathEscape(tag), cursor)
	if err != nil {
		return nil, errors.Wrap(err, "fail to get hashtag "+tag)
	}
	return &HashtagPage{
		Tag:       tag,
		Medias:    convertMedias(feed.Medias),
		EndCursor: feed.PageInfo.EndCursor,
		HasMore:   feed.PageInfo.HasNextPage && feed.PageInfo.EndCursor != "",
		Backoff:   backoff,
	}, nil
}

func (c *InstagramGatewayClient) getFeed(ctx context.Context, uri, cursor string) (*GatewayFeedResponse, time.Duration, error) {
	res, err := c.client.GetWithQueryParams(ctx, uri, map[string]string{"cursor": cursor})
	if err != nil {
		return nil, 0, err
	}
	var feed GatewayFeedResponse
	header, err := decodeJSON(res, &feed)
	if err != nil {
		return nil, 0, err
	}
	return &feed, parseRetryAfter(header.Get("Retry-After")), nil
}

func decodeJSON(res *http.Response, v interface{}) (http.Header, error) {
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to read response body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(err, "fail to parse response json")
	}
	return res.Header, nil
}

// parseRetryAfter supports the delay-seconds form of Retry-After.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// parseTakenAt accepts unix seconds, as number or string, and any layout
// dateparse understands. Layouts without zone are read as UTC.
func parseTakenAt(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("missing taken_at")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func convertMedias(medias []GatewayMedia) []model.RawPost {
	posts := make([]model.RawPost, 0, len(medias))
	for _, m := range medias {
		takenAt, err := parseTakenAt(m.TakenAt)
		if err != nil {
			Logger.Log.Warnf("media %s has invalid taken_at %s: %s", m.Id, string(m.TakenAt), err)
		}
		posts = append(posts, model.RawPost{
			Id:             m.Id,
			Shortcode:      m.Shortcode,
			OwnerId:        m.OwnerId,
			Caption:        m.Caption,
			TakenAt:        takenAt,
			Likes:          m.Likes,
			VideoViewCount: m.VideoViewCount,
			Type:           model.PostType(m.Typename),
			VideoUrl:       m.VideoUrl,
			DisplayUrl:     m.DisplayUrl,
			SidecarItems:   convertSidecarItems(m.SidecarItems),
			Hashtags:       m.Hashtags,
		})
	}
	return posts
}

func convertSidecarItems(items []GatewaySidecarItem) []model.SidecarItem {
	if len(items) == 0 {
		return nil
	}
	res := make([]model.SidecarItem, 0, len(items))
	for _, item := range items {
		resources := make([]model.DisplayResource, 0, len(item.DisplayResources))
		for _, r := range item.DisplayResources {
			resources = append(resources, model.DisplayResource{Url: r.Src, Width: r.Width, Height: r.Height})
		}
		res = append(res, model.SidecarItem{Id: item.Id, VideoUrl: item.VideoUrl, DisplayResources: resources})
	}
	return res
}
