package models

import "testing"

func TestParsePriceLevel(t *testing.T) {
	tests := []struct {
		label string
		want  PriceTier
	}{
		{"PRICE_LEVEL_FREE", PriceFree},
		{"PRICE_LEVEL_INEXPENSIVE", PriceInexpensive},
		{"PRICE_LEVEL_MODERATE", PriceModerate},
		{"PRICE_LEVEL_EXPENSIVE", PriceExpensive},
		{"PRICE_LEVEL_VERY_EXPENSIVE", PriceVeryExpensive},
		{"moderate", PriceModerate},
		{" price_level_expensive ", PriceExpensive},
		{"PRICE_LEVEL_UNSPECIFIED", PriceUnknown},
		{"", PriceUnknown},
		{"$$", PriceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParsePriceLevel(tt.label); got != tt.want {
				t.Errorf("ParsePriceLevel(%q) = %d, want %d", tt.label, got, tt.want)
			}
		})
	}
}

func TestPriceTierKnown(t *testing.T) {
	for tier := PriceFree; tier <= PriceVeryExpensive; tier++ {
		if !tier.Known() {
			t.Errorf("tier %d should be known", tier)
		}
	}
	for _, tier := range []PriceTier{PriceUnknown, 5, 99} {
		if tier.Known() {
			t.Errorf("tier %d should be unknown", tier)
		}
	}
}

func TestGroupHasMember(t *testing.T) {
	g := &Group{Members: []string{"alice", "bob"}}
	if !g.HasMember("bob") {
		t.Error("expected bob to be a member")
	}
	if g.HasMember("carol") {
		t.Error("expected carol not to be a member")
	}
}

func TestInviteExpired(t *testing.T) {
	inv := &Invite{ExpiresAt: 100}
	if inv.Expired(99) {
		t.Error("invite should be valid before expiry")
	}
	if !inv.Expired(100) {
		t.Error("invite should expire at ExpiresAt")
	}
	if (&Invite{}).Expired(1 << 40) {
		t.Error("invite without expiry should never expire")
	}
}

func TestEventDecided(t *testing.T) {
	e := &Event{}
	if e.Decided() {
		t.Error("new event should be undecided")
	}
	e.ChosenRestaurantID = "r1"
	if !e.Decided() {
		t.Error("event with a choice should be decided")
	}
}
