package oracle

import (
	"context"
	"testing"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

func TestStaticOracleAssertsRegisteredOwnership(t *testing.T) {
	phone, err := heshatypes.NewPhoneNumber("+1234567890")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	o := NewStaticOracle(phone)
	if err := o.AssertOwnership(context.Background(), phone); err != nil {
		t.Fatalf("AssertOwnership: %v", err)
	}
}

func TestStaticOracleDeniesUnregisteredPhone(t *testing.T) {
	registered, err := heshatypes.NewPhoneNumber("+1234567890")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	other, err := heshatypes.NewPhoneNumber("+19998887777")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	o := NewStaticOracle(registered)
	err = o.AssertOwnership(context.Background(), other)
	herr, ok := err.(*heshatypes.Error)
	if !ok || herr.Kind != heshatypes.KindVerificationDenied {
		t.Fatalf("got %v, want VerificationDenied", err)
	}
}

func TestStaticOracleRegisterAfterConstruction(t *testing.T) {
	phone, err := heshatypes.NewPhoneNumber("+1234567890")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	o := NewStaticOracle()
	if err := o.AssertOwnership(context.Background(), phone); err == nil {
		t.Fatal("expected denial before registration")
	}
	o.Register(phone)
	if err := o.AssertOwnership(context.Background(), phone); err != nil {
		t.Fatalf("AssertOwnership after Register: %v", err)
	}
}
