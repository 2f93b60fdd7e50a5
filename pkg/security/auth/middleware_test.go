package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientKeyMiddleware(t *testing.T) {
	validator := NewClientKeyValidator([]*ClientKeyInfo{})
	sources := []ClientKeySource{
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	}

	middleware := NewClientKeyMiddleware(validator, sources)

	if middleware == nil {
		t.Fatal("NewClientKeyMiddleware returned nil")
	}
	if middleware.validator != validator {
		t.Error("Validator not set correctly")
	}
	if len(middleware.sources) != 1 {
		t.Errorf("Expected 1 source, got %d", len(middleware.sources))
	}
}

func TestClientKeyMiddleware_Handle(t *testing.T) {
	tests := []struct {
		name           string
		keys           []*ClientKeyInfo
		sources        []ClientKeySource
		setupRequest   func(*http.Request)
		expectedStatus int
		checkContext   bool
	}{
		{
			name: "valid bearer token",
			keys: []*ClientKeyInfo{{Key: "sk-valid-key-123", Label: "ci", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer sk-valid-key-123")
			},
			expectedStatus: http.StatusOK,
			checkContext:   true,
		},
		{
			name: "valid custom header",
			keys: []*ClientKeyInfo{{Key: "sk-custom-key-456", Label: "staging", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "x-api-key", Scheme: ""},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("x-api-key", "sk-custom-key-456")
			},
			expectedStatus: http.StatusOK,
			checkContext:   true,
		},
		{
			name: "valid query parameter",
			keys: []*ClientKeyInfo{{Key: "sk-query-key-789", Label: "debug", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "query", Name: "api_key"},
			},
			setupRequest: func(r *http.Request) {
				q := r.URL.Query()
				q.Add("api_key", "sk-query-key-789")
				r.URL.RawQuery = q.Encode()
			},
			expectedStatus: http.StatusOK,
			checkContext:   true,
		},
		{
			name: "missing client key",
			keys: []*ClientKeyInfo{},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
			},
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
			checkContext:   false,
		},
		{
			name: "invalid client key",
			keys: []*ClientKeyInfo{{Key: "sk-valid-key", Label: "ci", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer sk-invalid-key")
			},
			expectedStatus: http.StatusUnauthorized,
			checkContext:   false,
		},
		{
			name: "disabled client key",
			keys: []*ClientKeyInfo{{Key: "sk-disabled-key", Label: "disabled", Enabled: false, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer sk-disabled-key")
			},
			expectedStatus: http.StatusUnauthorized,
			checkContext:   false,
		},
		{
			name: "multiple sources - first fails, second succeeds",
			keys: []*ClientKeyInfo{{Key: "sk-fallback-key", Label: "fallback", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
				{Type: "header", Name: "x-api-key", Scheme: ""},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("x-api-key", "sk-fallback-key")
			},
			expectedStatus: http.StatusOK,
			checkContext:   true,
		},
		{
			name: "wrong bearer scheme format",
			keys: []*ClientKeyInfo{{Key: "sk-valid-key", Label: "ci", Enabled: true, CreatedAt: time.Now()}},
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "sk-valid-key")
			},
			expectedStatus: http.StatusUnauthorized,
			checkContext:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewClientKeyValidator(tt.keys)
			middleware := NewClientKeyMiddleware(validator, tt.sources)

			var contextChecked bool
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.checkContext {
					info, ok := GetClientKeyInfo(r.Context())
					if !ok {
						t.Error("Expected client key info in context, got none")
					}
					if info == nil {
						t.Error("Expected non-nil client key info")
					}
					contextChecked = true
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			tt.setupRequest(req)

			rr := httptest.NewRecorder()
			middleware.Handle(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if tt.checkContext && !contextChecked {
				t.Error("Context was not checked in handler")
			}
		})
	}
}

func TestClientKeyMiddleware_extractClientKey(t *testing.T) {
	tests := []struct {
		name          string
		sources       []ClientKeySource
		setupRequest  func(*http.Request)
		expectedKey   string
		expectedError bool
	}{
		{
			name:    "extract from bearer token",
			sources: []ClientKeySource{{Type: "header", Name: "Authorization", Scheme: "Bearer"}},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer sk-test-key")
			},
			expectedKey: "sk-test-key",
		},
		{
			name:    "extract from custom header",
			sources: []ClientKeySource{{Type: "header", Name: "x-api-key", Scheme: ""}},
			setupRequest: func(r *http.Request) {
				r.Header.Set("x-api-key", "sk-custom-key")
			},
			expectedKey: "sk-custom-key",
		},
		{
			name:    "extract from query parameter",
			sources: []ClientKeySource{{Type: "query", Name: "api_key"}},
			setupRequest: func(r *http.Request) {
				q := r.URL.Query()
				q.Add("api_key", "sk-query-key")
				r.URL.RawQuery = q.Encode()
			},
			expectedKey: "sk-query-key",
		},
		{
			name:          "no key found",
			sources:       []ClientKeySource{{Type: "header", Name: "Authorization", Scheme: "Bearer"}},
			setupRequest:  func(r *http.Request) {},
			expectedError: true,
		},
		{
			name:    "bearer token without scheme",
			sources: []ClientKeySource{{Type: "header", Name: "Authorization", Scheme: "Bearer"}},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "sk-test-key")
			},
			expectedError: true,
		},
		{
			name: "try multiple sources - first succeeds",
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
				{Type: "query", Name: "api_key"},
			},
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer sk-header-key")
				q := r.URL.Query()
				q.Add("api_key", "sk-query-key")
				r.URL.RawQuery = q.Encode()
			},
			expectedKey: "sk-header-key",
		},
		{
			name: "try multiple sources - second succeeds",
			sources: []ClientKeySource{
				{Type: "header", Name: "Authorization", Scheme: "Bearer"},
				{Type: "query", Name: "api_key"},
			},
			setupRequest: func(r *http.Request) {
				q := r.URL.Query()
				q.Add("api_key", "sk-query-key")
				r.URL.RawQuery = q.Encode()
			},
			expectedKey: "sk-query-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := &ClientKeyMiddleware{sources: tt.sources}

			req := httptest.NewRequest("GET", "/test", nil)
			tt.setupRequest(req)

			key, err := middleware.extractClientKey(req)

			if tt.expectedError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if key != tt.expectedKey {
					t.Errorf("Expected key %s, got %s", tt.expectedKey, key)
				}
			}
		})
	}
}

func TestGetClientKeyInfo(t *testing.T) {
	t.Run("key info present in context", func(t *testing.T) {
		info := &ClientKeyInfo{Key: "sk-test-key", Label: "ci", Enabled: true, CreatedAt: time.Now()}
		validator := NewClientKeyValidator([]*ClientKeyInfo{info})
		middleware := NewClientKeyMiddleware(validator, []ClientKeySource{
			{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer sk-test-key")

		var gotInfo *ClientKeyInfo
		var gotOK bool
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotInfo, gotOK = GetClientKeyInfo(r.Context())
		})

		rr := httptest.NewRecorder()
		middleware.Handle(handler).ServeHTTP(rr, req)

		if !gotOK {
			t.Fatal("Expected found=true")
		}
		if gotInfo.Label != "ci" {
			t.Errorf("Expected label ci, got %s", gotInfo.Label)
		}
	})

	t.Run("no key info in context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		info, ok := GetClientKeyInfo(req.Context())
		if ok {
			t.Error("Expected found=false")
		}
		if info != nil {
			t.Error("Expected nil info when found=false")
		}
	})
}
