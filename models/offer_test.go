package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOfferTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		OfferPending:   false,
		OfferCountered: false,
		OfferAccepted:  true,
		OfferDeclined:  true,
		OfferExpired:   true,
	} {
		o := &Offer{Status: status}
		assert.Equal(t, terminal, o.Terminal(), status)
	}
}

func TestOfferResponder(t *testing.T) {
	requester := uuid.New()
	provider := uuid.New()

	// While pending the counterpart answers.
	pending := &Offer{ProposerID: provider, Status: OfferPending}
	assert.Equal(t, requester, pending.Responder(requester, provider))

	pending = &Offer{ProposerID: requester, Status: OfferPending}
	assert.Equal(t, provider, pending.Responder(requester, provider))

	// Once countered, the turn passes back to the original proposer.
	countered := &Offer{ProposerID: provider, Status: OfferCountered}
	assert.Equal(t, provider, countered.Responder(requester, provider))
}
