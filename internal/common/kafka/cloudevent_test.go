package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

func TestCloudEvent(t *testing.T) {
	t.Run("NewAndParse", func(t *testing.T) {
		ce, err := NewCloudEvent("service-booking", "booking.requested", samplePayload{BookingID: "b-1", Amount: 2500})
		require.NoError(t, err)
		assert.Equal(t, "1.0", ce.SpecVersion)
		assert.NotEmpty(t, ce.ID)
		assert.False(t, ce.Time.IsZero())

		ce = ce.WithSubject("b-1")
		raw := []byte(`{"specversion":"1.0","id":"x","source":"s","type":"booking.requested","data":{"booking_id":"b-1","amount":2500}}`)
		parsed, err := ParseCloudEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, "booking.requested", parsed.Type)

		var p samplePayload
		require.NoError(t, parsed.ParseData(&p))
		assert.Equal(t, "b-1", p.BookingID)
		assert.Equal(t, 2500.0, p.Amount)
		assert.Equal(t, "b-1", ce.Subject)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := ParseCloudEvent([]byte("{not json"))
		assert.Error(t, err)
	})

	t.Run("MissingType", func(t *testing.T) {
		_, err := ParseCloudEvent([]byte(`{"id":"x"}`))
		assert.Error(t, err)
	})

	t.Run("MissingData", func(t *testing.T) {
		ce := CloudEvent{ID: "x", Type: "t"}
		var p samplePayload
		assert.Error(t, ce.ParseData(&p))
	})
}
