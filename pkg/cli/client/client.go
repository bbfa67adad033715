/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package client provides interfaces for interacting with the sync server
// and the data structures for requests and responses
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrInvalidLogin is an error for invalid credentials for login
var ErrInvalidLogin = errors.New("wrong credentials")

// ErrContentTypeMismatch is an error for a response whose content type is not the expected one
var ErrContentTypeMismatch = errors.New("content type mismatch")

// ErrNoToken is an error for an authorized request made without an auth token
var ErrNoToken = errors.New("no auth token found")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized error
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

var contentTypeApplicationJSON = "application/json"
var contentTypeNone = ""

// apiPrefix is prepended to every path of the sync API
const apiPrefix = "/api/v1"

// Conn holds what is needed to talk to a sync server
type Conn struct {
	// Endpoint is the base URL of the server
	Endpoint string
	// Version is the version of the program, sent along with every request
	Version string
	// Token is the auth token of the session, if any
	Token      string
	HTTPClient *http.Client
}

// WithToken returns a copy of the connection authorized with the given token
func (c Conn) WithToken(token string) Conn {
	c.Token = token
	return c
}

// requestOptions contains options for requests
type requestOptions struct {
	HTTPClient *http.Client
	// ExpectedContentType is the Content-Type that the client is expecting from the server
	ExpectedContentType *string
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   time.Minute,
	}
}

func getHTTPClient(c Conn, options *requestOptions) *http.Client {
	if options != nil && options.HTTPClient != nil {
		return options.HTTPClient
	}

	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	return &http.Client{}
}

func getExpectedContentType(options *requestOptions) string {
	if options != nil && options.ExpectedContentType != nil {
		return *options.ExpectedContentType
	}

	return contentTypeApplicationJSON
}

func getReq(c Conn, path, method, body string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s%s", strings.TrimRight(c.Endpoint, "/"), apiPrefix, path)
	req, err := http.NewRequest(method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Client-Version", c.Version)
	if body != "" {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	if c.Token != "" {
		credential := fmt.Sprintf("Token %s", c.Token)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error and
// returns the decoded error message.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	bodyStr := string(body)
	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(bodyStr, "\n"),
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	expected := getExpectedContentType(options)

	got := res.Header.Get("Content-Type")
	if got != expected {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Is the server URL correct?", got, expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint
func doReq(c Conn, method, path, body string, options *requestOptions) (*http.Response, error) {
	req, err := getReq(c, path, method, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(c, options)
	res, err := hc.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return res, errors.Wrap(err, "server responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		res.Body.Close()
		return res, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint as a user,
// with the appropriate headers. The given path should include the preceding slash.
func doAuthorizedReq(c Conn, method, path, body string, options *requestOptions) (*http.Response, error) {
	if c.Token == "" {
		return nil, ErrNoToken
	}

	return doReq(c, method, path, body, options)
}

// doJSON performs a request with a JSON payload and decodes the JSON response
// into dest. A nil payload sends an empty body and a nil dest discards the response.
func doJSON(c Conn, authorized bool, method, path string, payload, dest interface{}) error {
	var body string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshaling payload")
		}
		body = string(b)
	}

	var res *http.Response
	var err error
	if authorized {
		res, err = doAuthorizedReq(c, method, path, body, nil)
	} else {
		res, err = doReq(c, method, path, body, nil)
	}
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding payload")
	}

	return nil
}

// IsEtebaseResp is the response from the server compatibility probe
type IsEtebaseResp struct {
	Etebase bool `json:"etebase"`
}

// IsEtebase asks the server whether it speaks the sync protocol
func IsEtebase(c Conn) (bool, error) {
	var resp IsEtebaseResp
	if err := doJSON(c, false, "GET", "/is_etebase", nil, &resp); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return false, nil
		}
		return false, errors.Wrap(err, "probing the server")
	}

	return resp.Etebase, nil
}

// LoginChallengePayload is a payload for /login_challenge
type LoginChallengePayload struct {
	Username string `json:"username"`
}

// LoginChallengeResp is the response from /login_challenge
type LoginChallengeResp struct {
	// Salt is the base64 encoded key derivation salt of the user
	Salt string `json:"salt"`
}

// GetLoginChallenge gets the key derivation parameters of the user
func GetLoginChallenge(c Conn, username string) (LoginChallengeResp, error) {
	var resp LoginChallengeResp

	payload := LoginChallengePayload{Username: username}
	if err := doJSON(c, false, "POST", "/login_challenge", payload, &resp); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.IsUnauthorized() || httpErr.IsNotFound()) {
			return resp, ErrInvalidLogin
		}
		return resp, errors.Wrap(err, "requesting the login challenge")
	}

	return resp, nil
}

// LoginPayload is a payload for /login
type LoginPayload struct {
	Username string `json:"username"`
	// AuthKey is the base64 encoded auth key derived from the password
	AuthKey string `json:"auth_key"`
}

// LoginResp is the response from /login
type LoginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login requests an auth token
func Login(c Conn, username, authKey string) (LoginResp, error) {
	var resp LoginResp

	payload := LoginPayload{
		Username: username,
		AuthKey:  authKey,
	}
	if err := doJSON(c, false, "POST", "/login", payload, &resp); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsUnauthorized() {
			return resp, ErrInvalidLogin
		}
		return resp, errors.Wrap(err, "making http request")
	}

	return resp, nil
}

// Logout invalidates the auth token on the server side
func Logout(c Conn) error {
	opts := requestOptions{
		ExpectedContentType: &contentTypeNone,
	}
	res, err := doAuthorizedReq(c, "POST", "/logout", "", &opts)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}
	res.Body.Close()

	return nil
}

// RespCollection is a collection as stored by the server. Meta and content
// are base64 encoded ciphertexts.
type RespCollection struct {
	UID     string `json:"uid"`
	Type    string `json:"type"`
	Meta    string `json:"meta"`
	Content string `json:"content"`
	Deleted bool   `json:"deleted"`
	Etag    string `json:"etag"`
}

// RespItem is an item as stored by the server. Meta and content are base64
// encoded ciphertexts.
type RespItem struct {
	UID     string `json:"uid"`
	Meta    string `json:"meta"`
	Content string `json:"content"`
	Deleted bool   `json:"deleted"`
	Etag    string `json:"etag"`
}

// ListOptions are the options for list requests
type ListOptions struct {
	// Stoken is the sync token of a previous listing. Nil requests a full listing.
	Stoken *string
	// Limit is the max number of entries per page. Zero leaves it to the server.
	Limit int
}

func (o ListOptions) encode(v url.Values) string {
	if o.Stoken != nil {
		v.Set("stoken", *o.Stoken)
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}

	return v.Encode()
}

// CollectionListResp is the response from the collection listing endpoint
type CollectionListResp struct {
	Data   []RespCollection `json:"data"`
	Stoken string           `json:"stoken"`
	Done   bool             `json:"done"`
}

// ListCollections lists the collections of the given type changed after the sync token
func ListCollections(c Conn, colType string, opts ListOptions) (CollectionListResp, error) {
	var resp CollectionListResp

	v := url.Values{}
	v.Set("type", colType)
	path := fmt.Sprintf("/collections?%s", opts.encode(v))

	if err := doJSON(c, true, "GET", path, nil, &resp); err != nil {
		return resp, errors.Wrap(err, "listing collections")
	}

	return resp, nil
}

// EtagResp is the response from the upload endpoints
type EtagResp struct {
	Etag string `json:"etag"`
}

// UploadCollection creates or replaces a collection on the server
func UploadCollection(c Conn, col RespCollection) (EtagResp, error) {
	var resp EtagResp

	path := fmt.Sprintf("/collections/%s", url.PathEscape(col.UID))
	if err := doJSON(c, true, "PUT", path, col, &resp); err != nil {
		return resp, errors.Wrapf(err, "uploading collection %s", col.UID)
	}

	return resp, nil
}

// ItemListResp is the response from the item listing endpoint
type ItemListResp struct {
	Data   []RespItem `json:"data"`
	Stoken string     `json:"stoken"`
	Done   bool       `json:"done"`
}

// ListItems lists the items of the collection changed after the sync token
func ListItems(c Conn, colUID string, opts ListOptions) (ItemListResp, error) {
	var resp ItemListResp

	path := fmt.Sprintf("/collections/%s/items?%s", url.PathEscape(colUID), opts.encode(url.Values{}))
	if err := doJSON(c, true, "GET", path, nil, &resp); err != nil {
		return resp, errors.Wrapf(err, "listing items of %s", colUID)
	}

	return resp, nil
}

// BatchItemsPayload is a payload for the item batch endpoint
type BatchItemsPayload struct {
	Items []RespItem `json:"items"`
}

// BatchItemsResp is the response from the item batch endpoint. Etags are in
// the order of the uploaded items.
type BatchItemsResp struct {
	Etags []string `json:"etags"`
}

// BatchItems creates or replaces the given items of the collection in one request
func BatchItems(c Conn, colUID string, items []RespItem) (BatchItemsResp, error) {
	var resp BatchItemsResp

	path := fmt.Sprintf("/collections/%s/items/batch", url.PathEscape(colUID))
	payload := BatchItemsPayload{Items: items}
	if err := doJSON(c, true, "POST", path, payload, &resp); err != nil {
		return resp, errors.Wrapf(err, "uploading items of %s", colUID)
	}

	return resp, nil
}
