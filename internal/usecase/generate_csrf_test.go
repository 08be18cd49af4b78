package usecase

import (
	"context"
	"log/slog"
	"testing"

	"dojo-hub/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCSRF_Success(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	uc := NewGenerateCSRF(sessions, &mockCSRF{token: "csrf-token-abc"}, slog.Default())

	token, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.NoError(t, err)
	assert.Equal(t, "csrf-token-abc", token)
}

func TestGenerateCSRF_NoSession(t *testing.T) {
	uc := NewGenerateCSRF(&mockSessionProvider{}, &mockCSRF{token: "x"}, slog.Default())

	_, err := uc.Execute(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGenerateCSRF_ProviderError(t *testing.T) {
	uc := NewGenerateCSRF(&mockSessionProvider{err: domain.ErrKratosUnavailable}, &mockCSRF{token: "x"}, slog.Default())

	_, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.ErrorIs(t, err, domain.ErrKratosUnavailable)
}

func TestGenerateCSRF_SecretMissing(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	uc := NewGenerateCSRF(sessions, &mockCSRF{err: domain.ErrCSRFSecretMissing}, slog.Default())

	_, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.ErrorIs(t, err, domain.ErrCSRFSecretMissing)
}
