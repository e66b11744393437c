package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"relatório final.pdf": "relatorio-final.pdf",
		"Ação_2025.xlsx":      "Acao_2025.xlsx",
		"../../etc/passwd":    "..-..-etc-passwd",
		"":                    "file",
		"...":                 "file",
		"photo.png":           "photo.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
}

func TestObjectPaths(t *testing.T) {
	at := time.UnixMilli(1735689600000)
	assert.Equal(t, "1735689600000-me.png", AvatarPath(at, "me.png"))
	assert.Equal(t, "attachments/A-ABC12/1735689600000-design-v2.pdf", AttachmentPath("A-ABC12", at, "design v2.pdf"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"http://files.local/attachments/attachments/A-1/1-a%20b.png",
		PublicURL("http://files.local/", "attachments", "attachments/A-1/1-a b.png"),
	)
}

func TestNewMinioStoreDefaultsBaseURL(t *testing.T) {
	s, err := NewMinioStore(Config{Endpoint: "minio:9000", AccessKey: "k", SecretKey: "s"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/avatars/x.png", s.PublicURL(BucketAvatars, "x.png"))
}
