package orchestrator

import (
	"errors"
	"testing"
)

func validForm() *DareForm {
	return &DareForm{
		StreamerTag:   "@teststreamer",
		Title:         "Eat a ghost pepper on stream",
		Amount:        25,
		DurationValue: 3,
		DurationUnit:  DurationDays,
		FunderWallet:  "0x1111111111111111111111111111111111111111",
	}
}

func TestValidateAmountBoundaries(t *testing.T) {
	cases := []struct {
		amount float64
		ok     bool
	}{
		{5, true},
		{10000, true},
		{4.99, false},
		{10000.01, false},
		{5.99, true},
		{5.999, false}, // sub-cent precision would be rounded on chain
	}

	for _, tc := range cases {
		f := validForm()
		f.Amount = tc.amount
		err := f.Validate()
		if tc.ok && err != nil {
			t.Errorf("amount %v: expected valid, got %v", tc.amount, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("amount %v: expected validation error", tc.amount)
		}
	}
}

func TestValidateTitleBoundaries(t *testing.T) {
	f := validForm()
	f.Title = "ab"
	if err := f.Validate(); err == nil {
		t.Fatal("2-char title: expected validation error")
	}

	f = validForm()
	f.Title = "abc"
	if err := f.Validate(); err != nil {
		t.Fatalf("3-char title: expected valid, got %v", err)
	}
}

func TestValidateTagPattern(t *testing.T) {
	for _, tag := range []string{"", "@streamer", "@Stream_Er99"} {
		f := validForm()
		f.StreamerTag = tag
		if err := f.Validate(); err != nil {
			t.Errorf("tag %q: expected valid, got %v", tag, err)
		}
	}
	for _, tag := range []string{"streamer", "@", "@bad handle", "@émile"} {
		f := validForm()
		f.StreamerTag = tag
		if err := f.Validate(); err == nil {
			t.Errorf("tag %q: expected validation error", tag)
		}
	}
}

func TestValidateReportsAllFields(t *testing.T) {
	f := validForm()
	f.Title = "x"
	f.Amount = 1
	err := f.Validate()

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := ve.Fields["title"]; !ok {
		t.Error("expected title in failing fields")
	}
	if _, ok := ve.Fields["amount"]; !ok {
		t.Error("expected amount in failing fields")
	}
}

func TestValidateNearbyDefaults(t *testing.T) {
	lat, lng := 52.52, 13.405

	f := validForm()
	f.Nearby = true
	if err := f.Validate(); err == nil {
		t.Fatal("nearby without coordinates: expected validation error")
	}

	f = validForm()
	f.Nearby = true
	f.Lat, f.Lng = &lat, &lng
	if err := f.Validate(); err != nil {
		t.Fatalf("nearby with coordinates: expected valid, got %v", err)
	}
	if f.RadiusKM != DefaultRadiusKM {
		t.Fatalf("expected default radius %v, got %v", DefaultRadiusKM, f.RadiusKM)
	}

	f = validForm()
	f.Nearby = true
	f.Lat, f.Lng = &lat, &lng
	f.RadiusKM = 51
	if err := f.Validate(); err == nil {
		t.Fatal("radius 51km: expected validation error")
	}
}

func TestIsOpenBounty(t *testing.T) {
	f := validForm()
	f.StreamerTag = ""
	if !f.IsOpenBounty() {
		t.Error("empty tag should be an open bounty")
	}
	f.StreamerTag = "@everyone"
	if !f.IsOpenBounty() {
		t.Error("@everyone should be an open bounty")
	}
	f.StreamerTag = "@somebody"
	if f.IsOpenBounty() {
		t.Error("targeted dare should not be an open bounty")
	}
}
