// Package chain implements read-only calls against the EVM node that hosts
// the admin role registry contract.
package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"fraxion.org/internal/auth"
)

// getAdmin(address) on the registry contract returns the caller's role code
// as a uint256. The zero value doubles as the deactivated sentinel.
const roleLookupSignature = "getAdmin(address)"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// Client is a read-only JSON-RPC client for the role ledger. It issues
// eth_call and eth_getBalance requests; it never sends transactions.
type Client struct {
	http     *resty.Client
	registry string
	selector []byte
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// NewClient constructs a ledger client for the given node URL and registry
// contract address.
func NewClient(rpcURL, registryAddress string, opts ...Option) (*Client, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, errors.New("chain: rpc url is required")
	}
	if !auth.IsHexAddress(registryAddress) {
		return nil, fmt.Errorf("chain: invalid registry contract address %q", registryAddress)
	}
	c := &Client{
		http:     resty.New().SetBaseURL(rpcURL).SetTimeout(10 * time.Second),
		registry: auth.NormalizeAddress(registryAddress),
		selector: auth.Keccak256([]byte(roleLookupSignature))[:4],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ auth.RoleResolver = (*Client)(nil)

// ResolveRole reads the role code for address from the registry contract.
// Infrastructure failure is surfaced, never defaulted to a role.
func (c *Client) ResolveRole(ctx context.Context, address string) (auth.Role, error) {
	address = strings.TrimSpace(address)
	if !auth.IsHexAddress(address) {
		return auth.RoleDeactivated, fmt.Errorf("chain: invalid address %q", address)
	}

	data := make([]byte, 0, 4+32)
	data = append(data, c.selector...)
	data = append(data, abiEncodeAddress(address)...)

	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   c.registry,
		"data": "0x" + hex.EncodeToString(data),
	}, "latest")
	if err != nil {
		return auth.RoleDeactivated, err
	}

	code, err := parseQuantity(result)
	if err != nil {
		return auth.RoleDeactivated, fmt.Errorf("chain: decode role code: %w", err)
	}
	role := auth.Role(code.Int64())
	if !code.IsInt64() || !role.Valid() {
		return auth.RoleDeactivated, fmt.Errorf("chain: registry returned unknown role code %s", code)
	}
	return role, nil
}

// Balance reads the native-token balance of address in wei.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	address = strings.TrimSpace(address)
	if !auth.IsHexAddress(address) {
		return nil, fmt.Errorf("chain: invalid address %q", address)
	}
	result, err := c.call(ctx, "eth_getBalance", auth.NormalizeAddress(address), "latest")
	if err != nil {
		return nil, err
	}
	return parseQuantity(result)
}

func (c *Client) call(ctx context.Context, method string, params ...any) (string, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	var out rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("")
	if err != nil {
		return "", fmt.Errorf("chain: %s: %w", method, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chain: %s: node returned HTTP %d", method, resp.StatusCode())
	}
	if out.Error != nil {
		return "", fmt.Errorf("chain: %s: rpc error %d: %s", method, out.Error.Code, out.Error.Message)
	}
	var result string
	if err := json.Unmarshal(out.Result, &result); err != nil {
		return "", fmt.Errorf("chain: %s: unexpected result shape: %w", method, err)
	}
	return result, nil
}

// abiEncodeAddress left-pads a 20-byte address to one 32-byte ABI word.
func abiEncodeAddress(address string) []byte {
	raw, _ := hex.DecodeString(strings.TrimPrefix(auth.NormalizeAddress(address), "0x"))
	word := make([]byte, 32)
	copy(word[32-len(raw):], raw)
	return word
}

func parseQuantity(result string) (*big.Int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(result), "0x")
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("not a hex quantity: %q", result)
	}
	return v, nil
}
