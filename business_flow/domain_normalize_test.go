package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomainCandidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain word gets com appended", "coffee", "coffee.com"},
		{"mixed case lowered", "MyBrand", "mybrand.com"},
		{"surrounding whitespace trimmed", "  roastery  ", "roastery.com"},
		{"scheme stripped", "https://espresso.com", "espresso.com"},
		{"www prefix stripped", "www.espresso.com", "espresso.com"},
		{"path stripped", "espresso.com/menu", "espresso.com"},
		{"query stripped", "espresso.com?ref=home", "espresso.com"},
		{"fragment stripped", "espresso.com#top", "espresso.com"},
		{"trailing dot stripped", "espresso.com.", "espresso.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDomainCandidate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDomainCandidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"non com tld", "shop.net", ErrDomainWrongTLD},
		{"digits in label", "cafe42", ErrDomainContainsDigits},
		{"digits in dotted candidate", "shop24.com", ErrDomainContainsDigits},
		{"empty after stripping", "https://", ErrDomainNotNormalizable},
		{"bare tld", ".com", ErrDomainNotNormalizable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeDomainCandidate(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeOwnedDomain(t *testing.T) {
	t.Run("any tld accepted", func(t *testing.T) {
		got, err := NormalizeOwnedDomain("https://www.My-Studio.io/")
		require.NoError(t, err)
		assert.Equal(t, "my-studio.io", got)
	})

	t.Run("digits accepted", func(t *testing.T) {
		got, err := NormalizeOwnedDomain("studio24.net")
		require.NoError(t, err)
		assert.Equal(t, "studio24.net", got)
	})

	t.Run("unicode punycoded", func(t *testing.T) {
		got, err := NormalizeOwnedDomain("caffè.it")
		require.NoError(t, err)
		assert.Equal(t, "xn--caff-8oa.it", got)
	})

	t.Run("dotless rejected", func(t *testing.T) {
		_, err := NormalizeOwnedDomain("dotless")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDomainNotNormalizable)
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John's Coffee", "john-s-coffee"},
		{"  Test Page  ", "test-page"},
		{"already-slugged", "already-slugged"},
		{"UPPER case 42", "upper-case-42"},
		{"___", ""},
		{"--Edge--Case--", "edge-case"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.input), "slugify(%q)", tt.input)
	}
}

func TestFormatPriceCents(t *testing.T) {
	assert.Equal(t, "$12.00", FormatPriceCents(1200))
	assert.Equal(t, "$0.05", FormatPriceCents(5))
	assert.Equal(t, "$150.00", FormatPriceCents(15000))
	assert.Equal(t, "$9.99", FormatPriceCents(999))
}
