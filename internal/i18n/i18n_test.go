package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize("ko"))

	assert.Equal(t, "이미 처리된 요청입니다.", T("ko", KeyPurchaseAlreadyProcessed))
	assert.Equal(t, "This request has already been processed.", T("en", KeyPurchaseAlreadyProcessed))
	assert.Equal(t, "잘못된 입력입니다.", T("ko", KeyValidationInvalid, "입력"))
}

func TestFallbacks(t *testing.T) {
	require.NoError(t, Initialize("ko"))

	assert.Equal(t, "전체", T("ja", KeyIdeaAllCategory), "unsupported language falls back to the default")
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.True(t, Supported("en"))
	assert.False(t, Supported("ja"))
}

func TestCatalogsShareKeys(t *testing.T) {
	require.NoError(t, Initialize("ko"))

	ko := instance.translations["ko"]
	en := instance.translations["en"]
	require.NotEmpty(t, ko)

	for key := range ko {
		_, ok := en[key]
		assert.True(t, ok, "en catalog is missing %s", key)
	}
	assert.Len(t, en, len(ko))
}
