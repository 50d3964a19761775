package scoring

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, FactorConfig{Enabled: true, Weight: 1, LargerBetter: true}, cfg.Factors.YTM)
	assert.Equal(t, FactorConfig{Enabled: true, Weight: 1, LargerBetter: false}, cfg.Factors.PremiumRate)
	assert.Equal(t, FactorConfig{Enabled: true, Weight: 1, LargerBetter: false}, cfg.Factors.IssuedAmount)
	assert.Equal(t, FactorConfig{Enabled: true, Weight: 1, LargerBetter: false}, cfg.Factors.PureBondPremium)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, cfg Config)
	}{
		{
			name:  "not an object",
			input: `"hello"`,
			check: func(t *testing.T, cfg Config) { assert.Equal(t, DefaultConfig(), cfg) },
		},
		{
			name:  "no factors",
			input: `{"version":1}`,
			check: func(t *testing.T, cfg Config) { assert.Equal(t, DefaultConfig(), cfg) },
		},
		{
			name:  "partial override",
			input: `{"factors":{"ytmRt":{"weight":2.5},"premiumRate":{"enabled":false}}}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, FactorConfig{Enabled: true, Weight: 2.5, LargerBetter: true}, cfg.Factors.YTM)
				assert.Equal(t, FactorConfig{Enabled: false, Weight: 1, LargerBetter: false}, cfg.Factors.PremiumRate)
				assert.Equal(t, DefaultConfig().Factors.IssuedAmount, cfg.Factors.IssuedAmount)
			},
		},
		{
			name:  "unknown keys ignored",
			input: `{"factors":{"volume":{"weight":9},"ytmRt":{"weight":3,"color":"red"}},"extra":true}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 3.0, cfg.Factors.YTM.Weight)
			},
		},
		{
			name:  "malformed fields fall back per field",
			input: `{"factors":{"ytmRt":{"enabled":"yes","weight":"abc","largerBetter":false},"currIssAmt":{"enabled":0,"weight":null}}}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, FactorConfig{Enabled: true, Weight: 1, LargerBetter: false}, cfg.Factors.YTM)
				assert.Equal(t, DefaultConfig().Factors.IssuedAmount, cfg.Factors.IssuedAmount)
			},
		},
		{
			name:  "numeric string weight",
			input: `{"factors":{"pureBondPremiumRate":{"weight":" 0.5 "}}}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 0.5, cfg.Factors.PureBondPremium.Weight)
			},
		},
		{
			name:  "factor not an object",
			input: `{"factors":{"ytmRt":5}}`,
			check: func(t *testing.T, cfg Config) { assert.Equal(t, DefaultConfig(), cfg) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(decode(t, tt.input)))
		})
	}
}

func TestNormalize_Nil(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Normalize(nil))
	assert.Equal(t, DefaultConfig(), NormalizeJSON([]byte("{")))
}

func TestCookieValue_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Factors.YTM.Weight = 2
	cfg.Factors.IssuedAmount.Enabled = false
	cfg.Factors.PureBondPremium.LargerBetter = true

	encoded := EncodeCookieValue(cfg)
	assert.NotContains(t, encoded, ";")
	assert.NotContains(t, encoded, ",")
	assert.NotContains(t, encoded, `"`)

	decoded, ok := DecodeCookieValue(encoded)
	require.True(t, ok)
	assert.Equal(t, cfg, decoded)
}

func TestDecodeCookieValue_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"bad escape", "%zz"},
		{"not json", url.QueryEscape("{broken")},
		{"plain text", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := DecodeCookieValue(tt.value)
				assert.False(t, ok)
			})
		})
	}
}

func TestDecodeCookieValue_BrowserEncoded(t *testing.T) {
	// encodeURIComponent form written by a browser
	value := "%7B%22version%22%3A1%2C%22factors%22%3A%7B%22ytmRt%22%3A%7B%22enabled%22%3Afalse%2C%22weight%22%3A1%2C%22largerBetter%22%3Atrue%7D%7D%7D"

	cfg, ok := DecodeCookieValue(value)

	require.True(t, ok)
	assert.False(t, cfg.Factors.YTM.Enabled)
	assert.True(t, cfg.Factors.PremiumRate.Enabled)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(DefaultConfig())
	require.NoError(t, err)
	h2, _ := Hash(DefaultConfig())
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	other := DefaultConfig()
	other.Factors.YTM.Weight = 2
	h3, _ := Hash(other)
	assert.NotEqual(t, h1, h3)
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(`
factors:
  ytmRt:
    weight: 2
  currIssAmt:
    enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Factors.YTM.Weight)
	assert.True(t, cfg.Factors.YTM.LargerBetter)
	assert.False(t, cfg.Factors.IssuedAmount.Enabled)
	assert.Equal(t, 1, cfg.Version)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("factors:\n  ytmRt:\n    wieght: 2\n"))
	assert.Error(t, err, "typo must fail")

	_, err = Parse([]byte("version: 2\n"))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "version", verr.Field)

	_, err = Parse([]byte("factors:\n  ytmRt:\n    weight: .nan\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("factors:\n  premiumRate:\n    weight: 4\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Factors.PremiumRate.Weight)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type memStore map[string]Config

func (m memStore) Get(_ context.Context, p string) (Config, bool, error) {
	c, ok := m[p]
	return c, ok, nil
}
func (m memStore) Put(_ context.Context, p string, c Config) error { m[p] = c; return nil }
func (m memStore) Delete(_ context.Context, p string) error        { delete(m, p); return nil }

func TestResolve(t *testing.T) {
	ctx := context.Background()

	cfg, err := Resolve(ctx, nil, "default")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	custom := DefaultConfig()
	custom.Factors.YTM.Weight = 5
	store := memStore{"aggressive": custom}

	cfg, err = Resolve(ctx, store, "aggressive")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Factors.YTM.Weight)

	cfg, err = Resolve(ctx, store, "other")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestRedisStore_Disabled(t *testing.T) {
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	store := NewRedisStore(client)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, store.Put(ctx, "default", DefaultConfig()), redis.ErrDisabled)
	assert.ErrorIs(t, store.Delete(ctx, "default"), redis.ErrDisabled)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	host, port, _ := strings.Cut(addr, ":")

	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Host: host, Port: port, Enabled: true}})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()
	profile := "test_" + t.Name()

	cfg := DefaultConfig()
	cfg.Factors.IssuedAmount.Weight = 0.25
	require.NoError(t, store.Put(ctx, profile, cfg))
	defer store.Delete(ctx, profile)

	got, found, err := store.Get(ctx, profile)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cfg, got)
}
