package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := issuer.Issue(Session{UserID: "u1", Role: RoleOrganizer})
		require.NoError(t, err)
		s, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, Session{UserID: "u1", Role: RoleOrganizer}, s)
		assert.True(t, s.IsOrganizer())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewIssuer("other", time.Hour).Issue(Session{UserID: "u1", Role: RolePlayer})
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewIssuer("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.Issue(Session{UserID: "u1", Role: RolePlayer})
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := issuer.Issue(Session{UserID: "u1", Role: "admin"})
		require.NoError(t, err)
		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := issuer.Issue(Session{Role: RolePlayer})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestContext(t *testing.T) {
	assert.True(t, FromContext(context.Background()).Anonymous())
	ctx := NewContext(context.Background(), Session{UserID: "u2", Role: RolePlayer})
	s := FromContext(ctx)
	assert.Equal(t, "u2", s.UserID)
	assert.False(t, s.IsOrganizer())
}
