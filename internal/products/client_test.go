package products

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.CatalogConfig{BaseURL: "http://catalog.test/api/"}, &http.Client{Transport: fn}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGetProductSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		if req.URL.String() != "http://catalog.test/api/products/sku-1" {
			t.Fatalf("unexpected url %s", req.URL)
		}
		return jsonResponse(http.StatusOK, `{"id":"sku-1","name":"Mug","price":12.5,"imageUrl":"https://img/mug.png","stock":3}`), nil
	})

	product, err := client.GetProduct(context.Background(), "sku-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product.Name != "Mug" || !product.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.Stock == nil || *product.Stock != 3 {
		t.Fatalf("expected stock 3, got %v", product.Stock)
	}
	if product.ImageURL != "https://img/mug.png" {
		t.Fatalf("unexpected image url %q", product.ImageURL)
	}
}

func TestGetProductWithoutStock(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"name":"Poster","price":"9.99"}`), nil
	})

	product, err := client.GetProduct(context.Background(), "poster")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product.ID != "poster" || product.Stock != nil {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestGetProductErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fn   roundTripFunc
		want pkgerrors.Code
	}{
		{"not found", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}, pkgerrors.CodeNotFound},
		{"server error", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, `boom`), nil
		}, pkgerrors.CodeDependency},
		{"transport", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}, pkgerrors.CodeDependency},
		{"bad json", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"price":`), nil
		}, pkgerrors.CodeDependency},
		{"negative price", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"id":"x","price":-1}`), nil
		}, pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestClient(t, tc.fn).GetProduct(context.Background(), "x")
			if !pkgerrors.IsCode(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestGetProductRequiresID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := client.GetProduct(context.Background(), "  "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.CatalogConfig{}, nil, nil); err == nil {
		t.Fatal("expected error without base url")
	}
}
