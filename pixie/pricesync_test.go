package pixie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pixie"
	"github.com/bidfx-oss/pricing-go/pricing"
)

func TestPriceSyncFullUpdateFiresFullPriceEvent(t *testing.T) {
	bid, err := pixie.NewFieldDef(1, pixie.FieldTypeDouble, pixie.EncodingZigzag, 5, "Bid")
	require.NoError(t, err)
	dict := pixie.DataDictionary{1: bid}

	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	subjects := []pricing.Subject{subject}

	bidValue := codec.EncodeVarintZigzag(nil, 110000)
	update := pixie.EncodeFullOrPartialUpdate(0, true, map[int64][]byte{1: bidValue})
	body := pixie.EncodePriceSyncMessage(false, 1, 100, 5, 1, [][]byte{update})

	msg, err := pixie.DecodePriceSyncMessage(body, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), msg.Revision)
	assert.Equal(t, uint64(1), msg.Edition)
	assert.Equal(t, uint64(1), msg.Size)

	var received pricing.PriceEvent
	callbacks := pricing.NewCallbacks()
	callbacks.PriceEventFn = func(e pricing.PriceEvent) { received = e }

	require.NoError(t, msg.VisitUpdates(subjects, dict, callbacks))
	assert.True(t, received.Full)
	assert.Equal(t, subject, received.Subject)
	assert.Equal(t, "1.1", received.Price.Get("Bid", ""))
}

func TestPriceSyncSkipsErrorFidField(t *testing.T) {
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	subjects := []pricing.Subject{subject}
	dict := pixie.DataDictionary{}

	update := pixie.EncodeFullOrPartialUpdate(0, false, map[int64][]byte{0x7FFFFFFF: nil})
	body := pixie.EncodePriceSyncMessage(false, 1, 100, 5, 1, [][]byte{update})

	msg, err := pixie.DecodePriceSyncMessage(body, nil)
	require.NoError(t, err)

	var received pricing.PriceEvent
	callbacks := pricing.NewCallbacks()
	callbacks.PriceEventFn = func(e pricing.PriceEvent) { received = e }

	require.NoError(t, msg.VisitUpdates(subjects, dict, callbacks))
	assert.Empty(t, received.Price)
}

func TestPriceSyncStatusUpdateFiresSubscriptionEvent(t *testing.T) {
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	subjects := []pricing.Subject{subject}
	dict := pixie.DataDictionary{}

	update := pixie.EncodeStatusUpdate(0, 'S', "stale connection")
	body := pixie.EncodePriceSyncMessage(false, 1, 100, 5, 1, [][]byte{update})

	msg, err := pixie.DecodePriceSyncMessage(body, nil)
	require.NoError(t, err)

	var received pricing.SubscriptionEvent
	callbacks := pricing.NewCallbacks()
	callbacks.SubscriptionEventFn = func(e pricing.SubscriptionEvent) { received = e }

	require.NoError(t, msg.VisitUpdates(subjects, dict, callbacks))
	assert.Equal(t, pricing.SubStale, received.Status)
	assert.Equal(t, "stale connection", received.Explanation)
}

func TestPriceSyncUnknownStatusCodeErrors(t *testing.T) {
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	subjects := []pricing.Subject{subject}
	dict := pixie.DataDictionary{}

	update := pixie.EncodeStatusUpdate(0, 'Z', "")
	body := pixie.EncodePriceSyncMessage(false, 1, 100, 5, 1, [][]byte{update})

	msg, err := pixie.DecodePriceSyncMessage(body, nil)
	require.NoError(t, err)

	callbacks := pricing.NewCallbacks()
	assert.Error(t, msg.VisitUpdates(subjects, dict, callbacks))
}

func TestPriceSyncCompressedRoundTrip(t *testing.T) {
	bid, err := pixie.NewFieldDef(1, pixie.FieldTypeDouble, pixie.EncodingZigzag, 5, "Bid")
	require.NoError(t, err)
	dict := pixie.DataDictionary{1: bid}
	subject := pricing.NewSubjectFromMap(map[string]string{"Symbol": "EURUSD"})
	subjects := []pricing.Subject{subject}

	bidValue := codec.EncodeVarintZigzag(nil, 110000)
	update := pixie.EncodeFullOrPartialUpdate(0, true, map[int64][]byte{1: bidValue})
	body := pixie.EncodePriceSyncMessage(true, 1, 100, 5, 1, [][]byte{update})

	msg, err := pixie.DecodePriceSyncMessage(body, codec.NewDecompressorStream())
	require.NoError(t, err)

	var received pricing.PriceEvent
	callbacks := pricing.NewCallbacks()
	callbacks.PriceEventFn = func(e pricing.PriceEvent) { received = e }
	require.NoError(t, msg.VisitUpdates(subjects, dict, callbacks))
	assert.Equal(t, "1.1", received.Price.Get("Bid", ""))
}
