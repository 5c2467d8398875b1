// Package tanda provides a Go client for the tandad HTTP API.
package tanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tandachain/crypto"
)

const identityHeader = "X-Tanda-Identity"

// Client talks to a tandad instance. The zero value is not usable; construct
// one with NewClient.
type Client struct {
	baseURL  string
	identity string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithIdentity sets the caller identity sent with every mutating request.
func WithIdentity(id crypto.Identity) Option {
	return func(c *Client) { c.identity = id.String() }
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tanda: %d %s", e.StatusCode, e.Message)
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.identity != "" {
		req.Header.Set(identityHeader, c.identity)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateCircleRequest mirrors the daemon's circle creation payload.
type CreateCircleRequest struct {
	Nonce              uint64 `json:"nonce"`
	ContributionAmount string `json:"contributionAmount"`
	DurationRounds     uint64 `json:"durationRounds"`
	MaxMembers         uint64 `json:"maxMembers"`
	PenaltyRateBps     uint32 `json:"penaltyRateBps"`
}

// Circle is the daemon's circle view.
type Circle struct {
	ID                 string   `json:"id"`
	Creator            string   `json:"creator"`
	ContributionAmount string   `json:"contributionAmount"`
	DurationRounds     uint64   `json:"durationRounds"`
	MaxMembers         uint64   `json:"maxMembers"`
	MemberCount        uint64   `json:"memberCount"`
	PenaltyRateBps     uint32   `json:"penaltyRateBps"`
	CurrentRound       uint64   `json:"currentRound"`
	TotalPot           string   `json:"totalPot"`
	Members            []string `json:"members"`
	Status             uint8    `json:"status"`
	CreatedAt          uint64   `json:"createdAt"`
}

// Member is the daemon's membership view.
type Member struct {
	Authority           string `json:"authority"`
	CircleID            string `json:"circleId"`
	Stake               string `json:"stake"`
	HasReceivedPot      bool   `json:"hasReceivedPot"`
	PayoutPosition      uint64 `json:"payoutPosition"`
	Status              uint8  `json:"status"`
	PenaltyCount        uint64 `json:"penaltyCount"`
	MissedContributions uint64 `json:"missedContributions"`
	JoinedAt            uint64 `json:"joinedAt"`
}

// TrustScore is the daemon's reputation view.
type TrustScore struct {
	Identity       string `json:"identity"`
	Overall        uint32 `json:"overall"`
	PaymentHistory uint32 `json:"paymentHistory"`
	CompletionRate uint32 `json:"completionRate"`
	Activity       uint32 `json:"activity"`
	SocialProof    uint32 `json:"socialProof"`
	Tier           string `json:"tier"`
}

// Treasury is the daemon's fee-accounting view.
type Treasury struct {
	Authority        string `json:"authority"`
	DistributionFees string `json:"distributionFees"`
	YieldFees        string `json:"yieldFees"`
	ManagementFees   string `json:"managementFees"`
	TotalCollected   string `json:"totalCollected"`
}

// CreateCircle registers a new savings circle owned by the client identity.
func (c *Client) CreateCircle(ctx context.Context, req CreateCircleRequest) (*Circle, error) {
	var out Circle
	if err := c.call(ctx, http.MethodPost, "/v1/circles", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Circle fetches a circle by its hex identifier.
func (c *Client) Circle(ctx context.Context, id string) (*Circle, error) {
	var out Circle
	if err := c.call(ctx, http.MethodGet, "/v1/circles/"+url.PathEscape(id)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Join stakes into a circle as the client identity.
func (c *Client) Join(ctx context.Context, circleID, stake string) (*Member, error) {
	var out Member
	body := map[string]string{"stake": stake}
	if err := c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/join", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Contribute pays the current round's contribution.
func (c *Client) Contribute(ctx context.Context, circleID, amount string) error {
	body := map[string]string{"amount": amount}
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/contribute", body, nil)
}

// Distribute pushes the round payout to the given recipient. Only the circle
// creator may call this.
func (c *Client) Distribute(ctx context.Context, circleID, recipient string) error {
	body := map[string]string{"recipient": recipient}
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/distribute", body, nil)
}

// ClaimPayout pulls the round payout as the scheduled recipient.
func (c *Client) ClaimPayout(ctx context.Context, circleID string) error {
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/claim", nil, nil)
}

// Leave exits the circle, refunding the stake.
func (c *Client) Leave(ctx context.Context, circleID string) error {
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/leave", nil, nil)
}

// MemberOf fetches a membership record.
func (c *Client) MemberOf(ctx context.Context, circleID, identity string) (*Member, error) {
	var out Member
	path := "/v1/circles/" + url.PathEscape(circleID) + "/members/" + url.PathEscape(identity)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrustScore fetches the reputation record for an identity.
func (c *Client) TrustScore(ctx context.Context, identity string) (*TrustScore, error) {
	var out TrustScore
	if err := c.call(ctx, http.MethodGet, "/v1/trust/"+url.PathEscape(identity), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Treasury fetches the protocol fee accounting snapshot.
func (c *Client) Treasury(ctx context.Context) (*Treasury, error) {
	var out Treasury
	if err := c.call(ctx, http.MethodGet, "/v1/revenue/treasury", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StakeInsurance adds backstop collateral to a circle's insurance pool.
func (c *Client) StakeInsurance(ctx context.Context, circleID, amount string) error {
	body := map[string]string{"amount": amount}
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/insurance/stake", body, nil)
}

// ReturnInsurance withdraws the insurance stake plus any bonus after the
// circle completes.
func (c *Client) ReturnInsurance(ctx context.Context, circleID string) error {
	return c.call(ctx, http.MethodPost, "/v1/circles/"+url.PathEscape(circleID)+"/insurance/return", nil, nil)
}

// Vote casts a governance ballot with the given linear power.
func (c *Client) Vote(ctx context.Context, proposalID string, support bool, power uint64) error {
	body := map[string]interface{}{"support": support, "power": strconv.FormatUint(power, 10)}
	return c.call(ctx, http.MethodPost, "/v1/proposals/"+url.PathEscape(proposalID)+"/votes", body, nil)
}
