package shop

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erpsystem/doccheck/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name        string
		handler     func(w http.ResponseWriter, r *http.Request)
		wantErr     bool
		errContains string
		check       func(t *testing.T, err error)
	}{
		{
			name: "Success - order with items",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"data":{"order":{"id":"O-1","orderNumber":"ORD-1","status":"SHIPPED","total":10,
					"items":[{"id":"i1","productName":"Chair","sku":"C-1","quantity":1,"unitPrice":10,"total":10}],"documents":[]}}}`))
			},
		},
		{
			name: "Failure - GraphQL errors with HTTP 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":null,"errors":[{"message":"boom"},{"message":"second"}]}`))
			},
			wantErr:     true,
			errContains: "boom; second",
			check: func(t *testing.T, err error) {
				var gqlErr *GraphQLError
				require.True(t, errors.As(err, &gqlErr))
				assert.Equal(t, http.StatusOK, gqlErr.StatusCode)
				assert.Len(t, gqlErr.Errors, 2)
			},
		},
		{
			name: "Failure - GraphQL errors alongside data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":{"order":{"id":"O-1"}},"errors":[{"message":"partial"}]}`))
			},
			wantErr:     true,
			errContains: "partial",
		},
		{
			name: "Failure - Server Error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			},
			wantErr:     true,
			errContains: "status 500",
			check: func(t *testing.T, err error) {
				var statusErr *HTTPStatusError
				require.True(t, errors.As(err, &statusErr))
			},
		},
		{
			name: "Failure - malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			wantErr:     true,
			errContains: "decode",
		},
		{
			name: "Failure - order not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":{"order":null}}`))
			},
			wantErr: true,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrOrderNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(tt.handler))
			defer srv.Close()

			c := NewClient(srv.URL)
			order, err := c.Order(context.Background(), "O-1")
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				if tt.check != nil {
					tt.check(t, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "O-1", order.ID)
			assert.Len(t, order.Items, 1)
		})
	}
}

func TestOrderSendsVariables(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"order":{"id":"O-9"}}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Order(context.Background(), `O-9"injected`)
	require.NoError(t, err)
	assert.Equal(t, OpOrder, got.OperationName)
	assert.Equal(t, `O-9"injected`, got.Variables["id"])
	assert.True(t, strings.Contains(got.Query, "documents"))
}

func TestUpdateOrderStatus(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"updateOrderStatus":{"id":"O-1","status":"DELIVERED","documents":[]}}}`))
	}))
	defer srv.Close()

	order, err := NewClient(srv.URL).UpdateOrderStatus(context.Background(), "O-1", "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", order.Status)
	assert.Equal(t, OpUpdateOrderStatus, got.OperationName)
	assert.Equal(t, "O-1", got.Variables["orderId"])
	assert.Equal(t, "DELIVERED", got.Variables["status"])
}

func TestBearerToken(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"order":{"id":"O-1"}}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithToken("static")).Order(context.Background(), "O-1")
	require.NoError(t, err)

	n := 0
	src := func() (string, error) { n++; return "minted", nil }
	_, err = NewClient(srv.URL, WithToken("static"), WithTokenSource(src)).Order(context.Background(), "O-1")
	require.NoError(t, err)

	require.Equal(t, []string{"Bearer static", "Bearer minted"}, auth)
	require.Equal(t, 1, n)
}

func TestTokenSourceFailureSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	src := func() (string, error) { return "", errors.New("no secret") }
	_, err := NewClient(srv.URL, WithTokenSource(src)).Order(context.Background(), "O-1")
	require.Error(t, err)
	require.False(t, called)
}

func TestTransportErrorCountsMetric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	before := testutil.ToFloat64(metrics.GraphQLRequests.WithLabelValues(OpOrder, "transport"))
	_, err := NewClient(url).Order(context.Background(), "O-1")
	require.Error(t, err)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.GraphQLRequests.WithLabelValues(OpOrder, "transport")))
}
