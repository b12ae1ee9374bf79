package security

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesScriptTag(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p>障害情報</p><script>alert("xss")</script>`)

	if strings.Contains(got, "<script>") {
		t.Errorf("scriptタグが除去されていません: %s", got)
	}
	if !strings.Contains(got, "<p>障害情報</p>") {
		t.Errorf("許可タグが除去されています: %s", got)
	}
}

func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p onclick="alert('xss')">クリック</p>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("on*イベント属性が除去されていません: %s", got)
	}
}

func TestSanitize_KeepsAllowedElements(t *testing.T) {
	s := NewContentSanitizer()

	input := `<ul><li><strong>API</strong>と<em>DB</em>で<code>5xx</code>増加</li></ul>`
	got := s.Sanitize(input)

	if got != input {
		t.Errorf("許可タグのみの入力が変更されました: got %s, want %s", got, input)
	}
}

func TestSanitize_HTTPSLinkOnly(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name     string
		input    string
		wantHref bool
	}{
		{"httpsリンクは許可", `<a href="https://example.com/incident">詳細</a>`, true},
		{"httpリンクは除去", `<a href="http://example.com/incident">詳細</a>`, false},
		{"javascriptスキームは除去", `<a href="javascript:alert(1)">詳細</a>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if strings.Contains(got, "href") != tt.wantHref {
				t.Errorf("Sanitize(%s) = %s", tt.input, got)
			}
		})
	}
}

func TestSanitize_AddsNoReferrerToLinks(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://example.com">詳細</a>`)

	if !strings.Contains(got, `rel="nofollow noreferrer"`) && !strings.Contains(got, "noreferrer") {
		t.Errorf("relにnoreferrerが付与されていません: %s", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blankが付与されていません: %s", got)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("空文字列の入力に対して %q が返されました", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>メンテナンス<iframe src="https://evil.example"></iframe></p>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("冪等ではありません: once=%s twice=%s", once, twice)
	}
}
