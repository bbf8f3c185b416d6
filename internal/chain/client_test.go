package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fraxion.org/internal/auth"
)

const (
	testRegistry = "0x00000000000000000000000000000000000000aa"
	testAddress  = "0xAbC0000000000000000000000000000000000001"
)

func newRPCServer(t *testing.T, handler func(method string, params []any) (any, *rpcError)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			raw, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal rpc result: %v", err)
			}
			resp.Result = raw
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveRoleDecodesCode(t *testing.T) {
	var gotData string
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		if method != "eth_call" {
			t.Fatalf("unexpected method %s", method)
		}
		call, ok := params[0].(map[string]any)
		if !ok {
			t.Fatalf("unexpected call params: %v", params[0])
		}
		if call["to"] != testRegistry {
			t.Fatalf("call targeted %v, want %s", call["to"], testRegistry)
		}
		gotData, _ = call["data"].(string)
		return "0x0000000000000000000000000000000000000000000000000000000000000004", nil
	})

	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	role, err := client.ResolveRole(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if role != auth.RoleSuperAdmin {
		t.Fatalf("expected super-admin, got %s", role)
	}

	// selector (4 bytes) + one ABI word carrying the lower-cased address
	if len(gotData) != 2+8+64 {
		t.Fatalf("unexpected calldata length: %d (%s)", len(gotData), gotData)
	}
	if !strings.HasSuffix(gotData, strings.TrimPrefix(strings.ToLower(testAddress), "0x")) {
		t.Fatalf("calldata does not embed the address: %s", gotData)
	}
}

func TestResolveRoleZeroIsDeactivated(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return "0x0", nil
	})
	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	role, err := client.ResolveRole(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if role != auth.RoleDeactivated {
		t.Fatalf("expected deactivated sentinel, got %s", role)
	}
}

func TestResolveRoleSurfacesRPCError(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "execution reverted"}
	})
	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ResolveRole(context.Background(), testAddress); err == nil {
		t.Fatalf("expected rpc error to surface")
	}
}

func TestResolveRoleRejectsUnknownCode(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return "0xff", nil
	})
	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ResolveRole(context.Background(), testAddress); err == nil {
		t.Fatalf("expected unknown role code to be rejected")
	}
}

func TestResolveRoleSurfacesTransportError(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return "0x1", nil
	})
	srv.Close()

	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ResolveRole(context.Background(), testAddress); err == nil {
		t.Fatalf("expected transport error to surface")
	}
}

func TestBalance(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		if method != "eth_getBalance" {
			t.Fatalf("unexpected method %s", method)
		}
		return "0xde0b6b3a7640000", nil // 1e18 wei
	})
	client, err := NewClient(srv.URL, testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	bal, err := client.Balance(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.String() != "1000000000000000000" {
		t.Fatalf("unexpected balance %s", bal)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", testRegistry); err == nil {
		t.Fatalf("expected error for missing rpc url")
	}
	if _, err := NewClient("http://localhost:8545", "not-an-address"); err == nil {
		t.Fatalf("expected error for malformed registry address")
	}
	var invalid error
	client, err := NewClient("http://localhost:8545", testRegistry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, invalid = client.ResolveRole(context.Background(), "bogus")
	if invalid == nil || errors.Is(invalid, auth.ErrUpstream) {
		t.Fatalf("expected local validation error, got %v", invalid)
	}
}
