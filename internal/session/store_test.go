// internal/session/store_test.go
package session

import (
	"testing"
	"time"

	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(balance int64, activity time.Time) domain.Session {
	return domain.Session{
		UserID:       "u1",
		Email:        "u1@example.com",
		Balance:      balance,
		LastActivity: activity,
		ExpiresAt:    activity.Add(24 * time.Hour),
	}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()

	_, ok := s.Current()
	assert.False(t, ok)

	err := s.ApplyLocalDebit(100)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestApplyAuthoritativeNewerWins(t *testing.T) {
	s := NewStore()
	base := time.Now()

	require.True(t, s.ApplyAuthoritative(snapshot(5000, base)))

	applied := s.ApplyAuthoritative(snapshot(8000, base.Add(time.Second)))
	assert.True(t, applied)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(8000), cur.Balance)
}

func TestApplyAuthoritativeStaleLoses(t *testing.T) {
	s := NewStore()
	base := time.Now()

	require.True(t, s.ApplyAuthoritative(snapshot(5000, base)))

	applied := s.ApplyAuthoritative(snapshot(9999, base.Add(-time.Minute)))
	assert.False(t, applied)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(5000), cur.Balance)
}

func TestApplyAuthoritativeEqualVersionLands(t *testing.T) {
	s := NewStore()
	base := time.Now()

	require.True(t, s.ApplyAuthoritative(snapshot(5000, base)))
	assert.True(t, s.ApplyAuthoritative(snapshot(6000, base)))
}

func TestLocalDebitBumpsVersion(t *testing.T) {
	s := NewStore()
	base := time.Now()
	s.now = func() time.Time { return base.Add(time.Second) }

	require.True(t, s.ApplyAuthoritative(snapshot(10000, base)))
	require.NoError(t, s.ApplyLocalDebit(3000))

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(7000), cur.Balance)

	// An authoritative snapshot fetched before the debit must not clobber
	// the optimistic balance.
	applied := s.ApplyAuthoritative(snapshot(10000, base))
	assert.False(t, applied)

	cur, _ = s.Current()
	assert.Equal(t, int64(7000), cur.Balance)
}

func TestLocalDebitNeverGoesNegative(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyAuthoritative(snapshot(5000, time.Now())))

	err := s.ApplyLocalDebit(6000)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	cur, _ := s.Current()
	assert.Equal(t, int64(5000), cur.Balance)
}

func TestLocalCredit(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyAuthoritative(snapshot(7000, time.Now())))

	require.NoError(t, s.ApplyLocalCredit(3000))

	cur, _ := s.Current()
	assert.Equal(t, int64(10000), cur.Balance)
}

func TestClear(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyAuthoritative(snapshot(5000, time.Now())))

	s.Clear()

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestObserverSeesEveryChange(t *testing.T) {
	s := NewStore()

	var got []*domain.Session
	s.Subscribe(func(snap *domain.Session) {
		got = append(got, snap)
	})

	require.True(t, s.ApplyAuthoritative(snapshot(5000, time.Now())))
	require.NoError(t, s.ApplyLocalDebit(1000))
	s.Clear()

	require.Len(t, got, 3)
	assert.Equal(t, int64(5000), got[0].Balance)
	assert.Equal(t, int64(4000), got[1].Balance)
	assert.Nil(t, got[2])
}
