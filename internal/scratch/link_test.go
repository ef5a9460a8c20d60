package scratch

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProjectURL(t *testing.T) {
	got := Normalize("https://scratch.mit.edu/projects/123456789/")

	require.True(t, got.OK)
	assert.Equal(t, "123456789", got.ID)
	assert.Equal(t, "https://scratch.mit.edu/projects/123456789/", got.URL)
	assert.Equal(t, "https://scratch.mit.edu/projects/123456789/embed", got.Embed)
	assert.Equal(t, FailureNone, got.Failure)
	assert.Empty(t, got.Reason)
}

func TestNormalizeAcceptedForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		id   string
	}{
		{"bare id", "1234", "1234"},
		{"bare id with spaces", "  98765432 \n", "98765432"},
		{"no protocol", "scratch.mit.edu/projects/55556666", "55556666"},
		{"upper case host", "HTTPS://Scratch.MIT.edu/Projects/4444/", "4444"},
		{"trailing segments", "https://scratch.mit.edu/projects/777777/editor/?tutorial=all", "777777"},
		{"embedded in text", "my game is at scratch.mit.edu/projects/31415926 thanks", "31415926"},
		{"embed url", "https://scratch.mit.edu/projects/123456/embed", "123456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			require.True(t, got.OK, "expected %q to be accepted", tc.in)
			assert.Equal(t, tc.id, got.ID)
			assert.Equal(t, "https://scratch.mit.edu/projects/"+tc.id+"/", got.URL)
			assert.Equal(t, "https://scratch.mit.edu/projects/"+tc.id+"/embed", got.Embed)
		})
	}
}

func TestNormalizeRejected(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		for _, in := range []string{"", "   ", "\t\n"} {
			got := Normalize(in)
			assert.False(t, got.OK)
			assert.Equal(t, FailureEmpty, got.Failure)
			assert.Equal(t, ReasonEmpty, got.Reason)
		}
	})

	t.Run("unrecognized", func(t *testing.T) {
		for _, in := range []string{
			"123",
			"12a45",
			"https://scratch.mit.edu/projects/123/",
			"https://scratch.mit.edu/users/someone",
			"https://example.com/projects/123456",
			"scratch.mit.edu/projects/",
			"-12345",
		} {
			got := Normalize(in)
			assert.False(t, got.OK, "expected %q to be rejected", in)
			assert.Equal(t, FailureUnrecognized, got.Failure)
			assert.NotEmpty(t, got.Reason)
			assert.Empty(t, got.ID)
			assert.Empty(t, got.Embed)
		}
	})
}

func TestNormalizeNumericStringsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 4 + rng.Intn(12)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteString(strconv.Itoa(rng.Intn(10)))
		}
		id := b.String()

		got := Normalize(id)
		require.True(t, got.OK, id)
		assert.Equal(t, id, got.ID)
		assert.Contains(t, got.URL, id)
		assert.Contains(t, got.Embed, id)
	}
}

func TestNormalizeNeverPanicsOnArbitraryText(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []rune("abc/.:?#%0123 scratchmitedu/projectsé世")
	for i := 0; i < 500; i++ {
		n := rng.Intn(40)
		rs := make([]rune, n)
		for j := range rs {
			rs[j] = alphabet[rng.Intn(len(alphabet))]
		}
		in := string(rs)

		assert.NotPanics(t, func() {
			got := Normalize(in)
			if !got.OK {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "", EmbedURL(""))
	assert.Equal(t, "https://scratch.mit.edu/projects/123456/embed", EmbedURL("123456"))
	assert.Equal(t, "https://scratch.mit.edu/projects/a%2Fb/embed", EmbedURL("a/b"))
}
