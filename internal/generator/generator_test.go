// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
)

const cleanSVG = `<svg version="1.2" baseProfile="tiny-ps" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64"><title>Acme</title><circle cx="32" cy="32" r="30"/></svg>`

func TestExtractSVG(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare", cleanSVG, cleanSVG},
		{"fenced", "Here you go:\n```svg\n" + cleanSVG + "\n```\nLet me know!", cleanSVG},
		{"prolog", `<?xml version="1.0"?>` + "\n" + cleanSVG, cleanSVG},
		{"upper case", `<SVG viewBox="0 0 1 1"></SVG>`, `<SVG viewBox="0 0 1 1"></SVG>`},
		{"skips svgz word", `see <svgfile> then <svg viewBox="0 0 1 1"/></svg>`, `<svg viewBox="0 0 1 1"/></svg>`},
	}
	for _, tt := range tests {
		got, err := ExtractSVG(tt.in)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractSVG_None(t *testing.T) {
	for _, in := range []string{"", "I cannot help with that.", "<svg viewBox='0 0 1 1'>", "</svg> <svg>"} {
		if _, err := ExtractSVG(in); !errors.Is(err, ErrNoSVG) {
			t.Errorf("ExtractSVG(%q) err = %v, want ErrNoSVG", in, err)
		}
	}
}

func TestService_Generate(t *testing.T) {
	gw := GatewayFunc(func(ctx context.Context, in Input) (string, error) {
		return "```xml\n" + `<svg viewBox="0 0 64 64"><title>` + in.BrandName + `</title><rect width="64" height="64"/></svg>` + "\n```", nil
	})
	c, err := NewService(gw, nil, nil).Generate(context.Background(), Input{BrandName: "Acme", SVGText: "<svg/>"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Result == nil || !c.Result.Compliant || !c.Result.Repaired {
		t.Errorf("result = %+v", c.Result)
	}
	if !strings.Contains(c.SourceText, `baseProfile="tiny-ps"`) {
		t.Errorf("candidate not repaired: %s", c.SourceText)
	}
}

func TestService_NonCompliantKept(t *testing.T) {
	gw := GatewayFunc(func(ctx context.Context, in Input) (string, error) {
		return `<svg version="1.2" baseProfile="tiny-ps" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"><script>x()</script></svg>`, nil
	})
	c, err := NewService(gw, assets.NewValidator(), nil).Generate(context.Background(), Input{SVGText: "<svg/>"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Result.Compliant || len(c.Result.Violations) != 1 || c.Result.Violations[0].Rule != assets.RuleScript {
		t.Errorf("result = %+v", c.Result)
	}
}

func TestService_Errors(t *testing.T) {
	svc := NewService(GatewayFunc(func(ctx context.Context, in Input) (string, error) {
		return "Sorry, no can do.", nil
	}), nil, nil)
	if _, err := svc.Generate(context.Background(), Input{SVGText: "<svg/>"}); !errors.Is(err, ErrNoSVG) {
		t.Errorf("err = %v, want ErrNoSVG", err)
	}

	if _, err := svc.Generate(context.Background(), Input{BrandName: "Acme"}); !IsInputError(err) {
		t.Errorf("err = %v, want input error", err)
	}

	boom := errors.New("upstream 500")
	svc = NewService(GatewayFunc(func(ctx context.Context, in Input) (string, error) {
		return "", boom
	}), nil, nil)
	if _, err := svc.Generate(context.Background(), Input{SVGText: "<svg/>"}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func newOpenAIServer(t *testing.T, reply string, inspect func(body map[string]any)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestOpenAIGateway_Image(t *testing.T) {
	var sawImage bool
	base := newOpenAIServer(t, cleanSVG, func(body map[string]any) {
		if body["model"] != "test-model" {
			t.Errorf("model = %v", body["model"])
		}
		messages, _ := body["messages"].([]any)
		if len(messages) != 2 {
			t.Errorf("messages = %d", len(messages))
			return
		}
		user, _ := messages[1].(map[string]any)
		parts, _ := user["content"].([]any)
		for _, p := range parts {
			part, _ := p.(map[string]any)
			if part["type"] != "image_url" {
				continue
			}
			img, _ := part["image_url"].(map[string]any)
			url, _ := img["url"].(string)
			sawImage = strings.HasPrefix(url, "data:image/png;base64,")
		}
	})

	gw, err := NewOpenAIGateway("test-key", base, "test-model")
	if err != nil {
		t.Fatal(err)
	}
	out, err := gw.Generate(context.Background(), Input{BrandName: "Acme", Image: []byte{0x89, 'P', 'N', 'G'}, ImageMIME: "image/png"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != cleanSVG {
		t.Errorf("out = %q", out)
	}
	if !sawImage {
		t.Error("image should be sent as a data URI part")
	}
}

func TestOpenAIGateway_ThroughService(t *testing.T) {
	base := newOpenAIServer(t, "```svg\n"+cleanSVG+"\n```", nil)
	gw, _ := NewOpenAIGateway("test-key", base, "")
	c, err := NewService(gw, nil, nil).Generate(context.Background(), Input{BrandName: "Acme", SVGText: `<svg><circle r="1"/></svg>`})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !c.Result.Compliant || c.Result.Repaired || c.SourceText != cleanSVG {
		t.Errorf("candidate = %+v", c)
	}
}

func TestNewOpenAIGateway_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIGateway("", "", ""); err == nil {
		t.Error("expected error without API key")
	}
}
