package clients

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	Logger "github.com/Luismorlan/instag/utils/log"
)

const defaultHttpTimeout = 60 * time.Second

// HttpStatusError is returned for non 2XX responses.
type HttpStatusError struct {
	Uri        string
	StatusCode int
}

func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("non-200 http code %d from %s", e.StatusCode, e.Uri)
}

type HttpClient struct {
	header  http.Header
	cookies []http.Cookie

	client *http.Client
}

func NewDefaultHttpClient() *HttpClient {
	return NewHttpClient(http.Header{}, []http.Cookie{})
}

func NewHttpClient(header http.Header, cookies []http.Cookie) *HttpClient {
	return &HttpClient{header: header, cookies: cookies, client: &http.Client{Timeout: defaultHttpTimeout}}
}

// SetHeader sets a header sent with every following request.
func (c *HttpClient) SetHeader(key, value string) {
	c.header.Set(key, value)
}

func (c *HttpClient) Post(ctx context.Context, uri string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, uri, body)
}

func (c *HttpClient) Get(ctx context.Context, uri string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, uri, nil)
}

// This method takes in an additional map from query key to query value, which
// will be appended to query uri as ?${KEY}=${VALUE}
func (c *HttpClient) GetWithQueryParams(ctx context.Context, uri string, params map[string]string) (*http.Response, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return c.do(ctx, http.MethodGet, u.String(), nil)
}

func (c *HttpClient) do(ctx context.Context, method, uri string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	req.Header = c.header.Clone()
	for i := range c.cookies {
		req.AddCookie(&c.cookies[i])
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if IsNon200HttpResponse(res) {
		MaybeLogNon200HttpError(res)
		res.Body.Close()
		return nil, &HttpStatusError{Uri: uri, StatusCode: res.StatusCode}
	}

	return res, nil
}

// Log http response if the error code is not 2XX
func MaybeLogNon200HttpError(res *http.Response) {
	if IsNon200HttpResponse(res) {
		Logger.Log.Errorf("non-200 http code: %d", res.StatusCode)
		LogHttpResponseBody(res)
	}
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode >= 300
}

func LogHttpResponseBody(res *http.Response) {
	body, err := ioutil.ReadAll(io.LimitReader(res.Body, 4096))
	if err == nil {
		Logger.Log.Errorln("response body is: ", string(body))
	}
}
