package pairing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
)

func TestDeepLink_RoundTrip(t *testing.T) {
	link := pairing.BuildDeepLink("app", "AbC-_12", "004217")
	assert.Equal(t, "app://pair?code=004217&pid=AbC-_12", link)

	pid, code, err := pairing.ParseDeepLink(link)

	require.NoError(t, err)
	assert.Equal(t, "AbC-_12", pid)
	assert.Equal(t, "004217", code)
}

func TestParseDeepLink_Rejects(t *testing.T) {
	tests := []struct {
		name string
		link string
	}{
		{name: "empty", link: ""},
		{name: "no scheme", link: "pair?pid=a&code=1"},
		{name: "wrong host", link: "app://login?pid=a&code=1"},
		{name: "missing code", link: "app://pair?pid=a"},
		{name: "missing pid", link: "app://pair?code=1"},
		{name: "garbage", link: "%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := pairing.ParseDeepLink(tt.link)
			assert.ErrorIs(t, err, domain.ErrPairingFailed)
		})
	}
}
