package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := New(Config{Endpoint: url, FieldName: "file", MinClasses: 2, MaxClasses: 16}, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"http endpoint", "http://localhost:8000", false},
		{"https endpoint", "https://predict.example.com/api", false},
		{"empty endpoint", "", true},
		{"no scheme", "ftp://localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{Endpoint: tt.endpoint}, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestClientURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8000":      "http://localhost:8000/predict/",
		"http://localhost:8000/":     "http://localhost:8000/predict/",
		"https://host/models/dense":  "https://host/models/dense/predict/",
		"https://host/models/dense/": "https://host/models/dense/predict/",
	}
	for endpoint, want := range tests {
		c, err := New(Config{Endpoint: endpoint}, nil)
		if err != nil {
			t.Fatalf("New(%q): %v", endpoint, err)
		}
		if got := c.URL(); got != want {
			t.Errorf("URL() for %q = %q, want %q", endpoint, got, want)
		}
	}
}

func TestPredictSendsMultipartFile(t *testing.T) {
	payload := []byte("\x89PNG fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/predict/" {
			t.Errorf("Expected path /predict/, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			return
		}
		if n := len(r.MultipartForm.File); n != 1 {
			t.Errorf("Expected exactly one file part, got %d", n)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Expected part named file: %v", err)
			return
		}
		defer file.Close()

		if header.Filename != "scan.png" {
			t.Errorf("Expected filename scan.png, got %s", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected part content type image/png, got %s", ct)
		}
		got, _ := io.ReadAll(file)
		if string(got) != string(payload) {
			t.Errorf("Unexpected part content %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction": [[0.2, 0.8]]}`))
	}))
	defer server.Close()

	m, err := newTestClient(t, server.URL).Predict(context.Background(), Image{
		Name:        "scan.png",
		ContentType: "image/png",
		Data:        payload,
	})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if m.Rows() != 1 || m.Columns() != 2 {
		t.Fatalf("Expected 1x2 matrix, got %dx%d", m.Rows(), m.Columns())
	}
	if m[0][0] != 0.2 || m[0][1] != 0.8 {
		t.Errorf("Unexpected scores %v", m[0])
	}
}

func TestPredictFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{"server error", http.StatusInternalServerError, "oops", KindServer, "request failed with status 500"},
		{"fastapi detail", http.StatusUnprocessableEntity, `{"detail": "file missing"}`, KindServer, "file missing"},
		{"created is success range", http.StatusCreated, `{"prediction": [[1, 0]]}`, "", ""},
		{"invalid json", http.StatusOK, "<html>", KindDecode, ""},
		{"missing field", http.StatusOK, `{"result": [[0.1, 0.9]]}`, KindDecode, "response has no prediction field"},
		{"null field", http.StatusOK, `{"prediction": null}`, KindDecode, "response has no prediction field"},
		{"wrong type", http.StatusOK, `{"prediction": "cat"}`, KindDecode, ""},
		{"no rows", http.StatusOK, `{"prediction": []}`, KindDecode, "prediction has no rows"},
		{"single column", http.StatusOK, `{"prediction": [[0.7]]}`, KindMalformed, ""},
		{"ragged rows", http.StatusOK, `{"prediction": [[0.1, 0.9], [0.3]]}`, KindMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Predict(context.Background(), Image{Name: "a.png", Data: []byte("x")})

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Expected success, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected %s error, got nil", tt.wantKind)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("Expected kind %s, got %s (%v)", tt.wantKind, KindOf(err), err)
			}
			var ue *UploadError
			if !errors.As(err, &ue) {
				t.Fatalf("Expected *UploadError, got %T", err)
			}
			if tt.wantMsg != "" && ue.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, ue.Message)
			}
			if tt.wantKind == KindServer && ue.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, ue.StatusCode)
			}
		})
	}
}

func TestPredictTruncatedBody(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantKind ErrorKind
	}{
		{"server status wins", "500 Internal Server Error", KindServer},
		{"success status is a read failure", "200 OK", KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Errorf("Response writer cannot hijack")
					return
				}
				conn, buf, err := hj.Hijack()
				if err != nil {
					t.Errorf("Hijack failed: %v", err)
					return
				}
				defer conn.Close()
				_, _ = buf.WriteString("HTTP/1.1 " + tt.status + "\r\nContent-Type: text/plain\r\nContent-Length: 100\r\n\r\npartial")
				_ = buf.Flush()
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Predict(context.Background(), Image{Name: "a.png", Data: []byte("x")})
			if KindOf(err) != tt.wantKind {
				t.Fatalf("Expected kind %s, got %s (%v)", tt.wantKind, KindOf(err), err)
			}
			var ue *UploadError
			if tt.wantKind == KindServer && (!errors.As(err, &ue) || ue.StatusCode != http.StatusInternalServerError) {
				t.Errorf("Expected status 500 on server error, got %v", err)
			}
		})
	}
}

func TestPredictNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).Predict(context.Background(), Image{Data: []byte("x")})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}
	if errors.Is(err, ErrServer) {
		t.Error("Network error must not match server sentinel")
	}
}

func TestPredictHonoursContext(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).Predict(ctx, Image{Data: []byte("x")})
	if KindOf(err) != KindNetwork {
		t.Fatalf("Expected network error for cancelled context, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cause to wrap context.Canceled, got %v", err)
	}
}
