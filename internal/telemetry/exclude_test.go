package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Excluded(t *testing.T) {
	t.Parallel()

	m := NewMatcher([]string{
		"request.headers.cookie",
		" Request.Headers.Authorization ",
		"request.headers.x-*",
		"",
	})

	tests := []struct {
		key  string
		want bool
	}{
		{key: "request.headers.cookie", want: true},
		{key: "request.headers.cookie2", want: false},
		{key: "request.headers.authorization", want: true},
		{key: "REQUEST.HEADERS.AUTHORIZATION", want: true},
		{key: "request.headers.x-api-key", want: true},
		{key: "request.headers.x-", want: true},
		{key: "request.headers.accept", want: false},
		{key: "request.method", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, m.Excluded(tt.key))
		})
	}
}

func TestMatcher_WildcardAll(t *testing.T) {
	t.Parallel()

	m := NewMatcher([]string{"*"})

	assert.True(t, m.Excluded("request.method"))
	assert.True(t, m.Excluded("anything"))
}

func TestMatcher_Nil(t *testing.T) {
	t.Parallel()

	var m *Matcher
	assert.False(t, m.Excluded("request.headers.cookie"))
}

func TestDefaultExclude(t *testing.T) {
	t.Parallel()

	m := NewMatcher(DefaultExclude)

	assert.True(t, m.Excluded("request.headers.cookie"))
	assert.True(t, m.Excluded("request.headers.set-cookie"))
	assert.True(t, m.Excluded("request.headers.authorization"))
	assert.True(t, m.Excluded("request.headers.proxy-authorization"))
	assert.True(t, m.Excluded("request.headers.x-forwarded-for"))
	assert.False(t, m.Excluded("request.headers.user-agent"))
}
