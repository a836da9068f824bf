package pixie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/pixie"
	"github.com/bidfx-oss/pricing-go/pricing"
)

func TestSubscriptionSyncNilWithNoPendingOps(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	assert.Nil(t, r.SubscriptionSync())
}

func TestSubscriptionSyncProducesNewEditionOnSubscribe(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	r.Subscribe(subject)

	msg := r.SubscriptionSync()
	require.NotNil(t, msg)
	assert.Equal(t, uint64(2), msg.Edition)
	require.Len(t, msg.Subjects, 1)
	assert.Equal(t, subject, msg.Subjects[0])
	assert.True(t, msg.Compressed)
}

func TestSubscriptionSyncUnchangedReturnsNil(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	r.Subscribe(subject)
	require.NotNil(t, r.SubscriptionSync())

	// Subscribing and unsubscribing a second subject in the same batch nets
	// out to no change from the previous edition's subject set.
	other := pricing.NewSubjectFromMap(map[string]string{"Symbol": "GBPUSD"})
	r.Subscribe(other)
	r.Unsubscribe(other)
	assert.Nil(t, r.SubscriptionSync())
}

func TestSubjectsForEditionErrorsWhenUnregistered(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	_, err := r.SubjectsForEdition(99)
	assert.Error(t, err)
}

func TestPurgeEditionsBeforeKeepsCurrentAndNewer(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	r.Subscribe(subject)
	msg := r.SubscriptionSync()
	require.NotNil(t, msg)

	r.PurgeEditionsBefore(msg.Edition)
	_, err := r.SubjectsForEdition(1)
	assert.Error(t, err)
	subjects, err := r.SubjectsForEdition(msg.Edition)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}

func TestResetAndGetSubjectsResubscribesEverything(t *testing.T) {
	r := pixie.NewSubscriptionRegister()
	a := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	b := pricing.NewSubjectFromMap(map[string]string{"Symbol": "GBPUSD"})
	r.Subscribe(a)
	r.Subscribe(b)
	require.NotNil(t, r.SubscriptionSync())

	subjects := r.ResetAndGetSubjects()
	assert.Len(t, subjects, 2)

	msg := r.SubscriptionSync()
	require.NotNil(t, msg)
	assert.Equal(t, uint64(2), msg.Edition)
	assert.Len(t, msg.Subjects, 2)
}
